package main

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
)

const (
	VariantPositional = "positional"
	VariantNTuple     = "ntuple"
)

type GameSettings struct {
	BoardSize    int        `json:"board_size"`
	BlackType    PlayerType `json:"-"`
	WhiteType    PlayerType `json:"-"`
	BlackStarts  bool       `json:"black_starts"`
	BlackVariant string     `json:"black_variant"`
	WhiteVariant string     `json:"white_variant"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		BoardSize:    8,
		BlackType:    PlayerHuman,
		WhiteType:    PlayerAI,
		BlackStarts:  true,
		BlackVariant: VariantPositional,
		WhiteVariant: VariantPositional,
	}
}
