package i18n

var enUS = map[Code]string{
	"UNKNOWN":              "Something went wrong. Please try again.",
	"GAME_COMPLETED":       "This game is over. No more actions are accepted.",
	"PHASE_MISMATCH":       "{{.Action}} is not allowed while the game is in {{.Phase}}.",
	"ROLE_MISMATCH":        "Only the {{.Required}} may do that.",
	"PAYLOAD_INVALID":      "The action is malformed: {{.Reason}}",
	"ACTION_KIND_UNKNOWN":  "Unknown action {{.Action}}.",
	"CARD_NOT_IN_HAND":     "Card {{.Card}} is not in your hand.",
	"SCENE_OPTION_INVALID": "{{.Option}} is not an option on the dealt scene tiles.",
	"NO_BADGE_REMAINING":   "You have already used your badge.",
	"NOT_YOUR_TURN":        "It is {{.Expected}}'s turn to speak.",
	"PLAYER_COUNT_INVALID": "A game needs between 4 and 12 players.",
	"CATALOG_EXHAUSTED":    "There are not enough cards to deal this game.",
	"GAME_NOT_FOUND":       "Game not found.",
	"PLAYER_NOT_FOUND":     "Player {{.Player}} is not seated in this game.",
	"GAME_CONTENTION":      "The game is busy. Please retry.",
	"PERSISTENCE_CONFLICT": "The game changed while saving. Please retry.",
}

var ptBR = map[Code]string{
	"UNKNOWN":              "Algo deu errado. Tente novamente.",
	"GAME_COMPLETED":       "Este jogo terminou. Nenhuma ação é aceita.",
	"PHASE_MISMATCH":       "{{.Action}} não é permitido na fase {{.Phase}}.",
	"ROLE_MISMATCH":        "Somente o papel {{.Required}} pode fazer isso.",
	"PAYLOAD_INVALID":      "Ação malformada: {{.Reason}}",
	"ACTION_KIND_UNKNOWN":  "Ação desconhecida {{.Action}}.",
	"CARD_NOT_IN_HAND":     "A carta {{.Card}} não está na sua mão.",
	"SCENE_OPTION_INVALID": "{{.Option}} não é uma opção das peças de cena.",
	"NO_BADGE_REMAINING":   "Você já usou seu distintivo.",
	"NOT_YOUR_TURN":        "É a vez de {{.Expected}} falar.",
	"PLAYER_COUNT_INVALID": "Um jogo precisa de 4 a 12 jogadores.",
	"CATALOG_EXHAUSTED":    "Não há cartas suficientes para este jogo.",
	"GAME_NOT_FOUND":       "Jogo não encontrado.",
	"PLAYER_NOT_FOUND":     "O jogador {{.Player}} não está neste jogo.",
	"GAME_CONTENTION":      "O jogo está ocupado. Tente novamente.",
	"PERSISTENCE_CONFLICT": "O jogo mudou durante a gravação. Tente novamente.",
}
