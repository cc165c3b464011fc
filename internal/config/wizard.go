package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"

	"github.com/ringflowhq/ringflow/internal/billing"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to ringflow! Let's configure your deployment.")
	fmt.Println()

	cfg := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	basePrompt := promptui.Prompt{
		Label:   "Public base URL (the telephony provider must reach it)",
		Default: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	}
	if cfg.Server.BaseURL, err = basePrompt.Run(); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	sidPrompt := promptui.Prompt{
		Label: "Telephony account SID",
	}
	if cfg.Telephony.AccountSID, err = sidPrompt.Run(); err != nil {
		return nil, fmt.Errorf("account sid: %w", err)
	}

	tokenPrompt := promptui.Prompt{
		Label: "Telephony auth token",
		Mask:  '*',
	}
	if cfg.Telephony.AuthToken, err = tokenPrompt.Run(); err != nil {
		return nil, fmt.Errorf("auth token: %w", err)
	}

	planItems := []string{}
	for _, p := range billing.Plans() {
		planItems = append(planItems, fmt.Sprintf("%s (up to %d numbers)", p.Name, p.MaxNumbers))
	}
	planPrompt := promptui.Select{
		Label: "Default plan",
		Items: planItems,
	}
	planIdx, _, err := planPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("plan selection: %w", err)
	}
	cfg.Billing.Plan = billing.Plans()[planIdx].Name

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration written to %s\n", path)
	return cfg, nil
}
