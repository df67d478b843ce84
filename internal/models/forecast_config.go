package models

// ConfidenceThresholds are informational confidence bands
type ConfidenceThresholds struct {
	Low      float64 `json:"low" yaml:"low" mapstructure:"low"`
	Moderate float64 `json:"moderate" yaml:"moderate" mapstructure:"moderate"`
	High     float64 `json:"high" yaml:"high" mapstructure:"high"`
}

// RiskThresholds are score cut points, checked in the order low, moderate, high.
// Critical is the implied floor and is not consulted by classification.
type RiskThresholds struct {
	Low      float64 `json:"low" yaml:"low" mapstructure:"low"`
	Moderate float64 `json:"moderate" yaml:"moderate" mapstructure:"moderate"`
	High     float64 `json:"high" yaml:"high" mapstructure:"high"`
	Critical float64 `json:"critical" yaml:"critical" mapstructure:"critical"`
}

// TrendAnalysisConfig controls the trend regression window
type TrendAnalysisConfig struct {
	WindowDays    int `json:"windowDays" yaml:"windowDays" mapstructure:"window_days"`
	MinDataPoints int `json:"minDataPoints" yaml:"minDataPoints" mapstructure:"min_data_points"`
}

// ForecastConfig holds the tunable forecast parameters
type ForecastConfig struct {
	AnalysisWindow       int                  `json:"analysisWindow" yaml:"analysisWindow"`
	MinSignalsRequired   int                  `json:"minSignalsRequired" yaml:"minSignalsRequired"`
	ConfidenceThresholds ConfidenceThresholds `json:"confidenceThresholds" yaml:"confidenceThresholds"`
	RiskThresholds       RiskThresholds       `json:"riskThresholds" yaml:"riskThresholds"`
	TrendAnalysis        TrendAnalysisConfig  `json:"trendAnalysis" yaml:"trendAnalysis"`
}

// DefaultForecastConfig returns the default forecast parameters
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		AnalysisWindow:     14,
		MinSignalsRequired: 5,
		ConfidenceThresholds: ConfidenceThresholds{
			Low:      0.3,
			Moderate: 0.6,
			High:     0.8,
		},
		RiskThresholds: RiskThresholds{
			Low:      20,
			Moderate: -10,
			High:     -30,
			Critical: -50,
		},
		TrendAnalysis: TrendAnalysisConfig{
			WindowDays:    7,
			MinDataPoints: 3,
		},
	}
}

// ForecastConfigOverride is a partial ForecastConfig. Nil fields keep the
// base value; set fields replace it wholesale.
type ForecastConfigOverride struct {
	AnalysisWindow       *int                  `json:"analysisWindow,omitempty" yaml:"analysisWindow,omitempty"`
	MinSignalsRequired   *int                  `json:"minSignalsRequired,omitempty" yaml:"minSignalsRequired,omitempty"`
	ConfidenceThresholds *ConfidenceThresholds `json:"confidenceThresholds,omitempty" yaml:"confidenceThresholds,omitempty"`
	RiskThresholds       *RiskThresholds       `json:"riskThresholds,omitempty" yaml:"riskThresholds,omitempty"`
	TrendAnalysis        *TrendAnalysisConfig  `json:"trendAnalysis,omitempty" yaml:"trendAnalysis,omitempty"`
}

// Merge applies a shallow override onto c and returns the result
func (c ForecastConfig) Merge(o *ForecastConfigOverride) ForecastConfig {
	if o == nil {
		return c
	}
	merged := c
	if o.AnalysisWindow != nil {
		merged.AnalysisWindow = *o.AnalysisWindow
	}
	if o.MinSignalsRequired != nil {
		merged.MinSignalsRequired = *o.MinSignalsRequired
	}
	if o.ConfidenceThresholds != nil {
		merged.ConfidenceThresholds = *o.ConfidenceThresholds
	}
	if o.RiskThresholds != nil {
		merged.RiskThresholds = *o.RiskThresholds
	}
	if o.TrendAnalysis != nil {
		merged.TrendAnalysis = *o.TrendAnalysis
	}
	return merged
}
