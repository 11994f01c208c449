// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/audalyze/audio"
	"github.com/ik5/audalyze/internal/log"
	"github.com/ik5/audalyze/model"
	"github.com/ik5/audalyze/plugin"
	"github.com/ik5/audalyze/utils"
)

// Input pairs a dense audio model with the channel to feed the plugin:
// a zero-based channel index, or -1 for a mean of all channels.
type Input struct {
	Model   model.DenseTimeValue
	Channel int
}

type outputKind int

const (
	kindInstants outputKind = iota
	kindTimeValues
	kindNotes
	kindRegions
	kindGrid
)

const readyPollInterval = 500 * time.Millisecond

// Transformer drives one feature-extraction plugin over one dense audio
// input, producing one output model per requested transform. Construct it
// with NewTransformer, run it (usually on its own goroutine) with Run, and
// cancel cooperatively with Abandon. All outputs reach completion 100 on
// every exit path, including abandonment.
type Transformer struct {
	input      Input
	transforms []Transform
	primary    Transform

	plug         plugin.Plugin
	channelCount int

	descriptors         []plugin.OutputDescriptor
	outputNos           []int
	fixedRateFeatureNos []int

	outputs []model.Model
	kinds   []outputKind

	abandoned atomic.Bool

	msgMtx  sync.Mutex
	message string
}

type completionSetter interface {
	SetCompletion(completion int, emit bool)
}

type sourceSetter interface {
	SetSourceModel(id model.ID)
}

// NewTransformer resolves the plugin, applies parameters, negotiates block
// geometry and creates the output models. All transforms must be identical
// apart from their chosen output.
func NewTransformer(in Input, transforms []Transform, reg *plugin.Registry) (*Transformer, error) {
	if len(transforms) == 0 {
		return nil, ErrNoTransforms
	}
	for j := 1; j < len(transforms); j++ {
		if !transforms[0].similarTo(transforms[j]) {
			return nil, ErrTransformsDiffer
		}
	}

	t := &Transformer{
		input:      in,
		transforms: transforms,
	}

	id := transforms[0].PluginIdentifier

	factory, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPluginUnavailable, id)
	}

	plug, err := factory.Instantiate(id, in.Model.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPluginUnavailable, id, err)
	}
	t.plug = plug

	for name, value := range transforms[0].Parameters {
		plug.SetParameter(name, value)
	}

	t.primary = t.withPluginDefaults(transforms[0])

	channelCount := in.Model.Channels()
	if plug.MaxChannelCount() < channelCount {
		channelCount = 1
	}
	if plug.MinChannelCount() > channelCount {
		return nil, fmt.Errorf("%w %q (plugin min %d, max %d; input has %d)",
			ErrChannelCount, id,
			plug.MinChannelCount(), plug.MaxChannelCount(), in.Model.Channels())
	}
	t.channelCount = channelCount

	if !plug.Initialise(channelCount, t.primary.StepSize, t.primary.BlockSize) {
		// Retry once with the plugin's own preferred sizes.
		retry := t.withPluginDefaults(Transform{
			PluginIdentifier: t.primary.PluginIdentifier,
			WindowType:       t.primary.WindowType,
		})
		if retry.StepSize == t.primary.StepSize && retry.BlockSize == t.primary.BlockSize {
			return nil, fmt.Errorf("%w: %q", ErrPluginInitFailed, id)
		}

		if !plug.Initialise(channelCount, retry.StepSize, retry.BlockSize) {
			return nil, fmt.Errorf("%w: %q", ErrPluginInitFailed, id)
		}

		t.appendMessage(fmt.Sprintf(
			"Plugin %q rejected step and block sizes (%d and %d); using plugin defaults (%d and %d) instead",
			id, t.primary.StepSize, t.primary.BlockSize,
			retry.StepSize, retry.BlockSize))

		t.primary.StepSize = retry.StepSize
		t.primary.BlockSize = retry.BlockSize
	}

	if want := transforms[0].PluginVersion; want != "" {
		if got := strconv.Itoa(plug.Version()); got != want {
			t.prependMessage(fmt.Sprintf(
				"Transform was configured for version %s of plugin %q, but the plugin being used is version %s",
				want, id, got))
		}
	}

	descs := plug.OutputDescriptors()
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoOutputs, id)
	}

	for j := range transforms {
		found := -1
		for i := range descs {
			if transforms[j].Output == "" || descs[i].Identifier == transforms[j].Output {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: %q has no output %q",
				ErrUnknownOutput, id, transforms[j].Output)
		}

		t.outputNos = append(t.outputNos, found)
		t.descriptors = append(t.descriptors, descs[found])
		// Incremented before use.
		t.fixedRateFeatureNos = append(t.fixedRateFeatureNos, -1)
	}

	for j := range transforms {
		t.createOutputModel(j)
	}

	return t, nil
}

// withPluginDefaults fills zero step/block sizes from the plugin's
// preferences, falling back to a 1024 block with the conventional step for
// the plugin's domain.
func (t *Transformer) withPluginDefaults(tr Transform) Transform {
	if tr.BlockSize == 0 {
		tr.BlockSize = t.plug.PreferredBlockSize()
		if tr.BlockSize == 0 {
			tr.BlockSize = 1024
		}
	}
	if tr.StepSize == 0 {
		tr.StepSize = t.plug.PreferredStepSize()
		if tr.StepSize == 0 {
			if t.plug.InputDomain() == plugin.FrequencyDomain {
				tr.StepSize = tr.BlockSize / 2
			} else {
				tr.StepSize = tr.BlockSize
			}
		}
	}
	return tr
}

// createOutputModel classifies output j's declared shape and creates the
// model features will be routed into.
func (t *Transformer) createOutputModel(j int) {
	desc := t.descriptors[j]
	inputRate := t.input.Model.SampleRate()

	binCount := 1
	if desc.HasFixedBinCount {
		binCount = desc.BinCount
	}

	modelRate := inputRate
	modelResolution := 1

	switch desc.SampleType {
	case plugin.VariableSampleRate:
		if desc.SampleRate != 0 {
			modelResolution = int(float64(modelRate)/desc.SampleRate + 0.001)
		}
	case plugin.OneSamplePerStep:
		modelResolution = t.primary.StepSize
	case plugin.FixedSampleRate:
		if desc.SampleRate > float64(inputRate) {
			modelResolution = 1
		} else {
			modelResolution = int(float64(inputRate) / desc.SampleRate)
		}
	}
	if modelResolution < 1 {
		modelResolution = 1
	}

	// Plugins predating explicit durations can still describe durationful
	// events: a multi-bin variable-rate output's second value is a
	// duration in all but name.
	preDuration := t.plug.APIVersion() < 2

	var out model.Model
	var kind outputKind

	switch {
	case binCount == 0 && (preDuration || !desc.HasDuration):
		// Anything with no value and no duration is an instant.
		out = model.NewSparseOneDimensional(modelRate, modelResolution)
		kind = kindInstants

	case (preDuration && binCount > 1 && desc.SampleType == plugin.VariableSampleRate) ||
		(!preDuration && desc.HasDuration):

		isNote := binCount > 1 ||
			desc.Unit == "Hz" ||
			containsFold(desc.Unit, "midi")

		if isNote {
			m := model.NewNote(modelRate, modelResolution)
			m.SetUnits(desc.Unit)
			out = m
			kind = kindNotes
		} else {
			m := model.NewRegion(modelRate, modelResolution)
			m.SetUnits(desc.Unit)
			out = m
			kind = kindRegions
		}

	case binCount == 1 || desc.SampleType == plugin.VariableSampleRate:
		// One value per result, or variable rate with several: a sparse
		// time-value model either way.
		m := model.NewSparseTimeValue(modelRate, modelResolution)
		m.SetUnits(desc.Unit)
		out = m
		kind = kindTimeValues

	default:
		// Fixed rate, multiple bins, no duration: a dense grid.
		m := model.NewMatrix(modelRate, modelResolution, binCount)
		if len(desc.BinNames) > 0 {
			m.SetBinNames(desc.BinNames)
		}
		out = m
		kind = kindGrid
	}

	if setter, ok := out.(sourceSetter); ok {
		setter.SetSourceModel(t.input.Model.ID())
	}

	t.outputs = append(t.outputs, out)
	t.kinds = append(t.kinds, kind)
}

func containsFold(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := 0; j < len(sub); j++ {
			a, b := s[i+j], sub[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Outputs returns the output models, one per transform, in order.
func (t *Transformer) Outputs() []model.Model { return t.outputs }

// Message returns warnings and recoverable-failure text accumulated by the
// transformer, empty when all is well.
func (t *Transformer) Message() string {
	t.msgMtx.Lock()
	defer t.msgMtx.Unlock()
	return t.message
}

func (t *Transformer) appendMessage(msg string) {
	t.msgMtx.Lock()
	defer t.msgMtx.Unlock()
	if t.message == "" {
		t.message = msg
	} else {
		t.message = t.message + "; " + msg
	}
}

func (t *Transformer) prependMessage(msg string) {
	t.msgMtx.Lock()
	defer t.msgMtx.Unlock()
	if t.message == "" {
		t.message = msg
	} else {
		t.message = msg + "; " + t.message
	}
}

// Abandon requests cooperative cancellation. The run loop polls the flag
// between blocks and still completes every output to 100.
func (t *Transformer) Abandon() { t.abandoned.Store(true) }

// Abandoned reports whether cancellation was requested.
func (t *Transformer) Abandoned() bool { return t.abandoned.Load() }

func (t *Transformer) setCompletionAll(completion int) {
	for _, out := range t.outputs {
		if c, ok := out.(completionSetter); ok {
			c.SetCompletion(completion, true)
		}
	}
}

// Run drives the plugin over the input and blocks until done. It waits for
// the input model to become ready first, polling in short intervals.
func (t *Transformer) Run() {
	defer t.setCompletionAll(100)

	input := t.input.Model

	for !input.IsReady() && !t.abandoned.Load() {
		log.Debug("waiting for input model to be ready")
		time.Sleep(readyPollInterval)
	}
	if t.abandoned.Load() {
		return
	}

	sampleRate := input.SampleRate()
	stepSize := int64(t.primary.StepSize)
	blockSize := int64(t.primary.BlockSize)

	frequencyDomain := t.plug.InputDomain() == plugin.FrequencyDomain

	buffers := make([][]float32, t.channelCount)
	for ch := range buffers {
		buffers[ch] = make([]float32, blockSize+2)
	}

	var fftCols []*FFTColumns
	var reals, imags []float64
	if frequencyDomain {
		for ch := 0; ch < t.channelCount; ch++ {
			channel := ch
			if t.channelCount == 1 {
				channel = t.input.Channel
			}
			fftCols = append(fftCols, NewFFTColumns(input, channel,
				t.primary.WindowType, int(blockSize), int(stepSize)))
		}
		reals = make([]float64, blockSize/2+1)
		imags = make([]float64, blockSize/2+1)
	}

	startFrame := input.StartFrame()
	endFrame := input.EndFrame()

	contextStart := utils.DurationToFrame(t.primary.StartTime, sampleRate)
	contextDuration := utils.DurationToFrame(t.primary.Duration, sampleRate)

	if contextStart == 0 || contextStart < startFrame {
		contextStart = startFrame
	}
	if contextDuration == 0 {
		contextDuration = endFrame - contextStart
	}
	if contextStart+contextDuration > endFrame {
		contextDuration = endFrame - contextStart
	}

	blockFrame := contextStart
	prevCompletion := int64(0)

	for j := range t.outputs {
		t.setCompletion(j, 0)
	}

	for !t.abandoned.Load() {
		if frequencyDomain {
			if blockFrame-blockSize/2 > contextStart+contextDuration {
				break
			}
		} else {
			if blockFrame >= contextStart+contextDuration {
				break
			}
		}

		completion := ((blockFrame - contextStart) / stepSize) * 99 /
			(contextDuration/stepSize + 1)

		if frequencyDomain {
			col := int((blockFrame - startFrame) / stepSize)
			for ch := range fftCols {
				fftCols[ch].ValuesAt(col, reals, imags)
				for i := int64(0); i <= blockSize/2; i++ {
					buffers[ch][i*2] = float32(reals[i])
					buffers[ch][i*2+1] = float32(imags[i])
				}
			}
		} else {
			t.getFrames(t.channelCount, blockFrame, int(blockSize), buffers)
		}

		features := t.plug.Process(buffers,
			utils.FrameToDuration(blockFrame, sampleRate))

		if t.abandoned.Load() {
			break
		}

		for j := range t.outputNos {
			for _, f := range features[t.outputNos[j]] {
				t.addFeature(j, blockFrame, f)
			}
		}

		if blockFrame == contextStart || completion > prevCompletion {
			for j := range t.outputs {
				t.setCompletion(j, int(completion))
			}
			prevCompletion = completion
		}

		blockFrame += stepSize
	}

	if !t.abandoned.Load() {
		features := t.plug.RemainingFeatures()
		for j := range t.outputNos {
			for _, f := range features[t.outputNos[j]] {
				t.addFeature(j, blockFrame, f)
			}
		}
	}
}

// getFrames fills one block of per-channel buffers starting at startFrame,
// zero-padding wherever the input has no content. With a single plugin
// channel over a multi-channel input, a selected channel is extracted, or
// the channel mean is used when no channel was selected.
func (t *Transformer) getFrames(channelCount int, startFrame int64, size int, buffers [][]float32) {
	offset := 0

	if startFrame < 0 {
		for c := 0; c < channelCount; c++ {
			for i := 0; i < size && startFrame+int64(i) < 0; i++ {
				buffers[c][i] = 0
			}
		}
		offset = int(-startFrame)
		size -= offset
		if size <= 0 {
			return
		}
		startFrame = 0
	}

	input := t.input.Model
	inChannels := input.Channels()

	interleaved := input.InterleavedFrames(startFrame, int64(size))
	got := len(interleaved) / inChannels

	if channelCount == 1 {
		switch {
		case inChannels == 1:
			copy(buffers[0][offset:], interleaved[:got])

		case t.input.Channel >= 0 && t.input.Channel < inChannels:
			for i := 0; i < got; i++ {
				buffers[0][offset+i] = interleaved[i*inChannels+t.input.Channel]
			}

		default:
			// Use mean instead of sum, as plugin input.
			audio.MixDownTo(buffers[0][offset:offset+got], interleaved[:got*inChannels], inChannels)
		}
	} else {
		for i := 0; i < got; i++ {
			for c := 0; c < channelCount; c++ {
				buffers[c][offset+i] = interleaved[i*inChannels+c]
			}
		}
	}

	for i := got; i < size; i++ {
		for c := 0; c < channelCount; c++ {
			buffers[c][offset+i] = 0
		}
	}
}

// addFeature resolves the feature's frame for output j and routes it into
// the output model.
func (t *Transformer) addFeature(j int, blockFrame int64, f plugin.Feature) {
	desc := t.descriptors[j]
	inputRate := t.input.Model.SampleRate()

	frame := blockFrame

	switch desc.SampleType {
	case plugin.VariableSampleRate:
		if !f.HasTimestamp {
			log.Warn("dropping variable-rate feature with no timestamp",
				"output", desc.Identifier)
			return
		}
		frame = utils.DurationToFrame(f.Timestamp, inputRate)

	case plugin.FixedSampleRate:
		if f.HasTimestamp {
			t.fixedRateFeatureNos[j] =
				int(math.Round(f.Timestamp.Seconds() * desc.SampleRate))
		} else {
			t.fixedRateFeatureNos[j]++
		}
		frame = int64(math.Round(
			float64(t.fixedRateFeatureNos[j]) / desc.SampleRate * float64(inputRate)))
	}

	switch t.kinds[j] {
	case kindInstants:
		t.outputs[j].(*model.SparseOneDimensional).AddInstant(frame, f.Label)

	case kindTimeValues:
		m := t.outputs[j].(*model.SparseTimeValue)

		if t.transforms[j].MultiValue == FirstValueOnly {
			var value float32
			if len(f.Values) > 0 {
				value = f.Values[0]
			}
			m.AddPoint(frame, value, f.Label)
			return
		}

		for i, value := range f.Values {
			label := f.Label
			if len(f.Values) > 1 {
				label = fmt.Sprintf("[%d] %s", i+1, f.Label)
			}
			m.AddPoint(frame, value, label)
		}

	case kindNotes:
		value, duration, level := t.noteFields(j, f)
		t.outputs[j].(*model.Note).AddNote(frame, value, duration, level, f.Label)

	case kindRegions:
		m := t.outputs[j].(*model.Region)
		_, duration, _ := t.noteFields(j, f)

		if f.HasDuration && len(f.Values) > 0 {
			for i, value := range f.Values {
				label := f.Label
				if len(f.Values) > 1 {
					label = fmt.Sprintf("[%d] %s", i+1, f.Label)
				}
				m.AddRegion(frame, value, duration, label)
			}
			return
		}

		var value float32
		if len(f.Values) > 0 {
			value = f.Values[0]
		}
		m.AddRegion(frame, value, duration, f.Label)

	case kindGrid:
		m := t.outputs[j].(*model.Matrix)
		m.SetColumn(int(frame/int64(m.Resolution())), f.Values)
	}
}

// noteFields extracts (pitch, duration, velocity-as-level) from a feature
// per the note/region value conventions: values[0] is the pitch, the
// explicit duration or values[1] is the duration, values[2] is a velocity
// in 0..127 mapped to a level in 0..1.
func (t *Transformer) noteFields(j int, f plugin.Feature) (value float32, duration int64, level float32) {
	inputRate := t.input.Model.SampleRate()

	index := 0
	if len(f.Values) > index {
		value = f.Values[index]
		index++
	}

	duration = 1
	if f.HasDuration {
		duration = utils.DurationToFrame(f.Duration, inputRate)
	} else if len(f.Values) > index {
		duration = int64(math.Round(float64(f.Values[index])))
		index++
	}
	if duration < 0 {
		log.Warn("clamping negative feature duration to zero",
			"output", t.descriptors[j].Identifier)
		duration = 0
	}

	velocity := float32(100)
	if len(f.Values) > index {
		velocity = f.Values[index]
	}
	if velocity < 0 {
		velocity = 127
	}
	if velocity > 127 {
		velocity = 127
	}
	level = velocity / 127

	return value, duration, level
}

func (t *Transformer) setCompletion(j, completion int) {
	if c, ok := t.outputs[j].(completionSetter); ok {
		c.SetCompletion(completion, true)
	}
}
