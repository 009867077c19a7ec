package types

import (
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

func newMalformedBar(b Bar, reason string) error {
	return coreerrors.Newf(coreerrors.ErrCodeMalformedBar,
		"malformed bar for %s at %s: %s", b.Instrument.Symbol(), b.TOpen, reason)
}
