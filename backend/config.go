package main

import "sync"

type Config struct {
	AiDepth               int             `json:"ai_depth"`
	AiExactEmptyThreshold int             `json:"ai_exact_empty_threshold"`
	AiMaxCandidates       int             `json:"ai_max_candidates"`
	AiTtSize              int             `json:"ai_tt_size"`
	AiTtBuckets           int             `json:"ai_tt_buckets"`
	AiTtUseSetAssoc       bool            `json:"ai_tt_use_set_assoc"`
	AiLogSearchStats      bool            `json:"ai_log_search_stats"`
	ModelPath             string          `json:"model_path"`
	Heuristics            HeuristicConfig `json:"heuristics"`
	Training              TrainingConfig  `json:"training"`
}

type HeuristicConfig struct {
	CornerBonus    float64 `json:"corner_bonus"`
	DangerPenalty  float64 `json:"danger_penalty"`
	MobilityWeight float64 `json:"mobility_weight"`
	WeightClamp    float64 `json:"weight_clamp"`
}

type TrainingConfig struct {
	Variant       string  `json:"variant"`
	SearchDepth   int     `json:"search_depth"`
	LearningRate  float64 `json:"learning_rate"`
	Epsilon       float64 `json:"epsilon"`
	ExploreTopK   int     `json:"explore_top_k"`
	SnapshotEvery int     `json:"snapshot_every"`
	AutosaveEvery int     `json:"autosave_every"`
	ArchiveDir    string  `json:"archive_dir"`
	MaxGames      int     `json:"max_games"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		// Search depth for the midgame; the endgame switches to exact
		// solving once empty cells drop to the threshold below.
		AiDepth:               5,
		AiExactEmptyThreshold: 14,

		// Move ordering keeps this many candidates per node. 0 keeps all;
		// the full 8x8 branching is small enough that the cap mostly
		// matters for the shallow self-play searches.
		AiMaxCandidates: 0,

		// TT sized for the 8x8 state space reachable at depth 5.
		AiTtUseSetAssoc: true,
		AiTtBuckets:     4,
		AiTtSize:        1 << 16,

		AiLogSearchStats: false, // turn ON temporarily to tune; disable later

		ModelPath: "reversi_models.gob",

		Heuristics: HeuristicConfig{
			CornerBonus:    25.0,
			DangerPenalty:  12.0,
			MobilityWeight: 4.0,
			WeightClamp:    250.0,
		},

		Training: TrainingConfig{
			Variant:       VariantPositional,
			SearchDepth:   2,
			LearningRate:  1.0,
			Epsilon:       0.15,
			ExploreTopK:   3,
			SnapshotEvery: 25,
			AutosaveEvery: 200,
			ArchiveDir:    "",
			MaxGames:      0,
		},
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}
