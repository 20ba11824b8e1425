package ingest

import "context"

type TriggerImportOutput struct {
	Status string `json:"status"`
}

type TriggerImport interface {
	Execute(ctx context.Context) (TriggerImportOutput, error)
}

type cycleTrigger interface {
	TriggerNow() error
}

type triggerImport struct {
	scheduler cycleTrigger
}

func NewTriggerImport(scheduler cycleTrigger) TriggerImport {
	return &triggerImport{scheduler: scheduler}
}

func (uc *triggerImport) Execute(ctx context.Context) (TriggerImportOutput, error) {
	_ = ctx

	if err := uc.scheduler.TriggerNow(); err != nil {
		return TriggerImportOutput{}, err
	}
	return TriggerImportOutput{Status: "scheduled"}, nil
}
