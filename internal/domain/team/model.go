package team

import "fmt"

// Team is a KBO club. Teams are reference data: seeded once and never
// mutated by schedule ingestion.
type Team struct {
	ID           string
	Name         string
	ShortName    string
	Code         string
	PrimaryColor string
	LogoURL      string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Code == "" {
		return fmt.Errorf("team code is required")
	}

	return nil
}
