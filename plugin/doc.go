// SPDX-License-Identifier: EPL-2.0

// Package plugin defines the feature-extraction plugin contract the
// transformer drives: descriptors for a plugin's outputs, the Feature
// values it emits, and a factory registry keyed by plugin identifier.
//
// The transport that actually loads plugins (typically an out-of-process
// plugin server speaking a request/response protocol) lives behind the
// Factory interface and is not part of this module.
package plugin
