package recorder

// NoopRecorder is used when no journal database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAction(_ *ActionEvent) error         { return nil }
func (n *NoopRecorder) RecordClaim(_ *ClaimEvent) error           { return nil }
func (n *NoopRecorder) RecordWithdrawal(_ *WithdrawalEvent) error { return nil }
func (n *NoopRecorder) Close() error                              { return nil }

func (n *NoopRecorder) RecentActions(_ string, _ int) ([]ActionEvent, error) {
	return nil, nil
}
