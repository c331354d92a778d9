package proximity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig is the JSON layout of a site calibration file.
type CalibrationConfig struct {
	Version  string   `json:"version"`
	Site     string   `json:"site,omitempty"`
	PathLoss PathLoss `json:"path_loss"`
}

// LoadCalibration loads path-loss parameters from a JSON calibration file.
// An empty path yields the defaults. On any read or parse failure the
// defaults are returned together with the error so callers can keep serving.
// Partial files are merged with the defaults.
func LoadCalibration(filePath string) (PathLoss, error) {
	if filePath == "" {
		return DefaultPathLoss(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultPathLoss(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultPathLoss(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultPathLoss()
	merged := MergeCalibration(defaults, config.PathLoss)
	logCalibrationOverrides(config.Site, defaults, merged)

	return merged, nil
}

// MergeCalibration applies the non-zero fields of override on top of base.
func MergeCalibration(base, override PathLoss) PathLoss {
	result := base
	if override.ReferenceRSSI != 0 {
		result.ReferenceRSSI = override.ReferenceRSSI
	}
	if override.Exponent != 0 {
		result.Exponent = override.Exponent
	}
	return result
}

func logCalibrationOverrides(site string, defaults, loaded PathLoss) {
	var overrides []string

	if loaded.ReferenceRSSI != defaults.ReferenceRSSI {
		overrides = append(overrides, fmt.Sprintf("path_loss.reference_rssi: %.1f -> %.1f",
			defaults.ReferenceRSSI, loaded.ReferenceRSSI))
	}
	if loaded.Exponent != defaults.Exponent {
		overrides = append(overrides, fmt.Sprintf("path_loss.exponent: %.2f -> %.2f",
			defaults.Exponent, loaded.Exponent))
	}

	if len(overrides) > 0 {
		slog.Info("loaded path-loss calibration with overrides",
			"site", site,
			"overrides", overrides)
	} else {
		slog.Info("loaded path-loss calibration (using all defaults)", "site", site)
	}
}
