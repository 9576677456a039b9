package domain

// EngineeredFeatures holds the windowed statistics computed from a market's
// snapshot history. Pointer fields are nil when the window did not contain
// enough data to compute the statistic. The JSON keys are the stable schema
// persisted alongside each signal.
type EngineeredFeatures struct {
	Chg1h              *float64 `json:"chg_1h"`
	Chg24h             *float64 `json:"chg_24h"`
	Chg7d              *float64 `json:"chg_7d"`
	Vol24h             *float64 `json:"vol_24h"`
	Vol7d              *float64 `json:"vol_7d"`
	Volume24h          *float64 `json:"volume_24h"`
	Volume7d           *float64 `json:"volume_7d"`
	SnapshotsCount24h  int      `json:"snapshots_count_24h"`
	SnapshotsCount7d   int      `json:"snapshots_count_7d"`
	ReversalRisk       float64  `json:"reversal_risk"` // [0,1] heuristic
	CurrentProbability *float64 `json:"current_probability"`
}

// ScoreResult is the output of a Scorer: a tradeability score with the
// confidence tier and a human-readable explanation of what drove it.
type ScoreResult struct {
	Score       int        `json:"score"` // [0,100]
	Confidence  Confidence `json:"confidence"`
	Explanation string     `json:"explanation"`
}

// FeatureResult bundles engineered features with the score derived from them,
// returned together by the feature engine for caller convenience.
type FeatureResult struct {
	Features    EngineeredFeatures
	Score       int
	Confidence  Confidence
	Explanation string
}

// Scorer maps engineered features to a score. Implementations must be pure
// and deterministic so a model-backed scorer can replace the shipped
// heuristic without touching the pipeline.
type Scorer interface {
	Score(f EngineeredFeatures) ScoreResult
}
