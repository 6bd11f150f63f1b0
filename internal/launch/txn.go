package launch

import "go.uber.org/zap"

// journal collects undo steps for a multi-part operation. On failure the
// recorded steps run in reverse order so earlier transfers are reversed
// after the ones that depended on them.
type journal struct {
	logger *zap.Logger
	undos  []func() error
}

func newJournal(logger *zap.Logger) *journal {
	return &journal{logger: logger}
}

func (j *journal) record(undo func() error) {
	j.undos = append(j.undos, undo)
}

// revert runs every recorded undo step, newest first. Undo steps reverse
// transfers made within the same call and cannot legitimately fail; a
// failure here means inconsistent balances and is logged at error level.
func (j *journal) revert() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil {
			j.logger.Error("rollback step failed", zap.Error(err))
		}
	}
	j.undos = nil
}
