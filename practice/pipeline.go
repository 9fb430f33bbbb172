package practice

import (
	"context"
	"errors"

	"orator/api"
	"orator/log"
	"orator/recording"
)

type Outcome int

const (
	OutcomeScored Outcome = iota
	OutcomeRejected
	OutcomeFailed
	OutcomeAuth
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScored:
		return "scored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAuth:
		return "auth"
	}
	return "failed"
}

const MsgSubmitFailed = "Failed to process audio. Please try again."

type Submitter interface {
	SubmitRecording(ctx context.Context, req api.SubmitRequest) (*api.Result, error)
}

// Resetter is the part of the controller the pipeline tears down.
type Resetter interface {
	ResetToIdle() error
}

// Pipeline submits one payload and classifies the response.
type Pipeline struct {
	module Module
	client Submitter
}

func NewPipeline(m Module, client Submitter) *Pipeline {
	return &Pipeline{module: m, client: client}
}

// Submission is the classified outcome of one upload.
type Submission struct {
	Outcome Outcome
	Result  *api.Result
	// Message is the user-facing text for rejected and failed outcomes.
	Message string
	Err     error
}

// Submit uploads the payload and always returns the controller to Idle
// before returning, whatever the outcome.
func (p *Pipeline) Submit(ctx context.Context, payload recording.Payload, ctl Resetter) Submission {
	defer func() {
		if err := ctl.ResetToIdle(); err != nil {
			log.Warnf("reset after submit: %v", err)
		}
	}()

	res, err := p.client.SubmitRecording(ctx, api.SubmitRequest{
		Path:     p.module.SubmitPath,
		IDField:  p.module.Prompt.IDField,
		PromptID: payload.PromptID,
		Audio: api.Recording{
			Audio:    payload.Audio,
			Filename: payload.Filename,
			MimeType: payload.MimeType,
		},
	})

	switch {
	case err == nil:
		logSubmission(p.module, payload, res)
		log.Result(string(p.module.Kind), payload.PromptID, round(res.Score), res.Transcription)
		return Submission{Outcome: OutcomeScored, Result: res}
	case errors.Is(err, api.ErrAuthRequired):
		log.Info("submission needs login")
		return Submission{Outcome: OutcomeAuth, Err: err}
	}

	if re, ok := api.IsRejected(err); ok {
		log.Warnf("submission rejected: %v", err)
		return Submission{Outcome: OutcomeRejected, Message: "Processing failed: " + re.Reason(), Err: err}
	}
	log.Errorf("submission failed: %v", err)
	return Submission{Outcome: OutcomeFailed, Message: MsgSubmitFailed, Err: err}
}

func logSubmission(m Module, payload recording.Payload, res *api.Result) {
	nm := res.Metrics
	if nm == nil {
		return
	}
	log.SubmissionMetrics(log.Metrics{
		AudioLengthS: payload.Duration.Seconds(),
		UploadKB:     float64(len(payload.Audio)) / 1024,
		DNSTimeMs:    nm.DNSMs(),
		ConnTimeMs:   nm.ConnMs(),
		TLSTimeMs:    nm.TLSMs(),
		TTFBMs:       nm.TTFBMs(),
		TotalTimeMs:  nm.TotalMs(),
		ConnReused:   nm.ConnReused,
		Status:       nm.Status,
	}, string(m.Kind), string(payload.Format), res.RequestID)
}
