package flow

// Preset is a named starter graph the editor can load onto an empty
// canvas.
type Preset struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Blocks      []Block `json:"blocks"`
}

// Presets returns the built-in starter graphs.
func Presets() []Preset {
	return []Preset{
		simpleForwardPreset(),
		businessHoursPreset(),
		voicemailOnlyPreset(),
	}
}

// PresetByName returns the named preset, or nil.
func PresetByName(name string) *Preset {
	for _, p := range Presets() {
		if p.Name == name {
			preset := p
			return &preset
		}
	}
	return nil
}

func simpleForwardPreset() Preset {
	return Preset{
		Name:        "simple_forward",
		Description: "Greet the caller and forward to one number, with voicemail on no answer.",
		Blocks: []Block{
			{
				ID:          "greeting",
				Type:        BlockSay,
				Config:      &SayConfig{Text: "Thank you for calling. Connecting you now.", Speed: 1.0},
				Position:    Position{X: 250, Y: 100},
				Connections: []string{"forward"},
			},
			{
				ID:          "forward",
				Type:        BlockForward,
				Config:      &ForwardConfig{Timeout: 20},
				Position:    Position{X: 250, Y: 250},
				Connections: []string{"voicemail"},
			},
			{
				ID:          "voicemail",
				Type:        BlockRecord,
				Config:      &RecordConfig{Prompt: "We can't take your call right now. Please leave a message after the tone.", MaxLength: 120, FinishOnKey: "#"},
				Position:    Position{X: 250, Y: 400},
				Connections: []string{},
			},
		},
	}
}

func businessHoursPreset() Preset {
	return Preset{
		Name:        "business_menu",
		Description: "A greeting and a two-option menu: sales rings a team, support takes a message.",
		Blocks: []Block{
			{
				ID:          "greeting",
				Type:        BlockSay,
				Config:      &SayConfig{Text: "Welcome to our company.", Speed: 1.0},
				Position:    Position{X: 250, Y: 100},
				Connections: []string{"menu"},
			},
			{
				ID:   "menu",
				Type: BlockGather,
				Config: &GatherConfig{
					Prompt:         "Press 1 for sales, or 2 for support.",
					MaxRetries:     3,
					RetryMessage:   "Sorry, I didn't get that. Please try again.",
					GoodbyeMessage: "Thank you for calling. Goodbye.",
					Options: []MenuOption{
						{Digit: "1", Text: "Sales", Action: "multi_forward", BlockID: "sales"},
						{Digit: "2", Text: "Support", Action: "record", BlockID: "support"},
					},
				},
				Position:    Position{X: 250, Y: 250},
				Connections: []string{},
			},
			{
				ID:          "sales",
				Type:        BlockMultiForward,
				Config:      &MultiForwardConfig{ForwardStrategy: StrategySimultaneous, RingTimeout: 20},
				Position:    Position{X: 100, Y: 400},
				Connections: []string{},
			},
			{
				ID:          "support",
				Type:        BlockRecord,
				Config:      &RecordConfig{Prompt: "Please describe your issue after the tone.", MaxLength: 180, FinishOnKey: "#"},
				Position:    Position{X: 400, Y: 400},
				Connections: []string{},
			},
		},
	}
}

func voicemailOnlyPreset() Preset {
	return Preset{
		Name:        "voicemail_only",
		Description: "Send every caller straight to voicemail.",
		Blocks: []Block{
			{
				ID:          "prompt",
				Type:        BlockRecord,
				Config:      &RecordConfig{Prompt: "Please leave a message after the tone.", MaxLength: 120, FinishOnKey: "#"},
				Position:    Position{X: 250, Y: 100},
				Connections: []string{"bye"},
			},
			{
				ID:          "bye",
				Type:        BlockHangup,
				Config:      &HangupConfig{},
				Position:    Position{X: 250, Y: 250},
				Connections: []string{},
			},
		},
	}
}
