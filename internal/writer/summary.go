package writer

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sirily11/argo-backtest-core/internal/metrics"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// WriteSummaryYAML renders a metrics.Summary as YAML at <dir>/summary.yaml.
func WriteSummaryYAML(dir string, summary metrics.Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create summary export directory", err)
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to marshal summary", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "summary.yaml"), data, 0o644); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to write summary.yaml", err)
	}

	return nil
}
