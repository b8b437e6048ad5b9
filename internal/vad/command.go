package vad

import (
	"bytes"
	"time"
)

// CommandDetector builds command sessions on top of a Classifier. Sessions
// share the classifier, so only one of them may be active at a time.
type CommandDetector struct {
	classifier Classifier
}

func NewCommandDetector(c Classifier) *CommandDetector {
	return &CommandDetector{classifier: c}
}

func (d *CommandDetector) NewSession(opts Options) (Session, error) {
	def := DefaultOptions()
	if opts.SampleRate == 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.Silence == 0 {
		opts.Silence = def.Silence
	}
	if opts.MinSpeech == 0 {
		opts.MinSpeech = def.MinSpeech
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &commandSession{opts: opts, classifier: d.classifier}, nil
}

func (d *CommandDetector) Close() error {
	return d.classifier.Close()
}

type commandSession struct {
	opts       Options
	classifier Classifier

	started bool
	verdict Verdict

	elapsed    time.Duration
	speechRun  time.Duration
	silenceRun time.Duration
	inCommand  bool

	// preroll holds speech chunks until MinSpeech confirms the command.
	preroll [][]byte
	chunks  [][]byte
	// voicedEnd is len(chunks) right after the last voiced chunk.
	voicedEnd int
}

func (s *commandSession) Start() error {
	if err := s.classifier.Configure(s.opts.SampleRate, s.opts.Sensitivity); err != nil {
		return err
	}

	*s = commandSession{opts: s.opts, classifier: s.classifier, started: true}
	return nil
}

func (s *commandSession) Process(chunk []byte) (Verdict, error) {
	if !s.started {
		return Failed, ErrNotStarted
	}
	if s.verdict != Listening {
		return s.verdict, ErrFinished
	}

	speech, err := s.classifier.IsSpeech(chunk)
	if err != nil {
		s.verdict = Failed
		return Failed, err
	}

	d := s.chunkDuration(chunk)
	s.elapsed += d
	own := bytes.Clone(chunk)

	if !s.inCommand {
		if speech {
			s.speechRun += d
			s.preroll = append(s.preroll, own)
			if s.speechRun >= s.opts.MinSpeech {
				s.inCommand = true
				s.chunks = append(s.chunks, s.preroll...)
				s.voicedEnd = len(s.chunks)
				s.preroll = nil
			}
		} else {
			s.speechRun = 0
			s.preroll = nil
		}
	} else {
		s.chunks = append(s.chunks, own)
		if speech {
			s.silenceRun = 0
			s.voicedEnd = len(s.chunks)
		} else {
			s.silenceRun += d
			if s.silenceRun >= s.opts.Silence {
				s.verdict = Complete
				return Complete, nil
			}
		}
	}

	if s.opts.MaxDuration > 0 && s.elapsed >= s.opts.MaxDuration {
		if s.inCommand {
			s.verdict = Complete
		} else {
			s.verdict = Failed
		}
		return s.verdict, nil
	}

	return Listening, nil
}

// Stop returns the command from speech onset through the last voiced chunk.
func (s *commandSession) Stop() []byte {
	defer func() {
		*s = commandSession{opts: s.opts, classifier: s.classifier}
	}()

	if s.verdict != Complete {
		return nil
	}

	return bytes.Join(s.chunks[:s.voicedEnd], nil)
}

func (s *commandSession) chunkDuration(chunk []byte) time.Duration {
	frames := len(chunk) / 2
	return time.Duration(frames) * time.Second / time.Duration(s.opts.SampleRate)
}
