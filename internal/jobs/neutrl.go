package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"yieldwatch/pkg/transport"
)

// NeutrlConfig holds neutrl job configuration.
type NeutrlConfig struct {
	// ProgramsURL is the season-programs endpoint (tests point it at a
	// mock).
	ProgramsURL string

	// ProgramID selects the program whose stats are recorded.
	ProgramID string
}

const (
	defaultNeutrlProgramID   = "ethereum-1"
	defaultNeutrlProgramsURL = "https://app.neutrl.fi/api/rewards/season-programs"
)

// Neutrl builds the season-programs job: pull the programs payload, select
// the ethereum program and write total points plus participant count. The
// upstream serves both as strings.
func Neutrl(opener transport.Opener, cfg NeutrlConfig) Job {
	if cfg.ProgramID == "" {
		cfg.ProgramID = defaultNeutrlProgramID
	}
	if cfg.ProgramsURL == "" {
		cfg.ProgramsURL = defaultNeutrlProgramsURL
	}

	return Job{
		Name:       "neutrl",
		DateLayout: "02/01/2006",
		Collect: func(ctx context.Context) ([]any, error) {
			sess, err := opener.Open(ctx)
			if err != nil {
				return nil, fmt.Errorf("open session: %w", err)
			}
			defer sess.Close()

			var payload struct {
				Data struct {
					SeasonPrograms []struct {
						ID    string `json:"id"`
						State struct {
							TotalPoints      json.RawMessage `json:"totalPoints"`
							ParticipantCount json.RawMessage `json:"participantCount"`
						} `json:"state"`
					} `json:"seasonPrograms"`
				} `json:"data"`
			}
			if err := fetchJSON(ctx, sess, cfg.ProgramsURL, &payload); err != nil {
				return nil, err
			}
			if len(payload.Data.SeasonPrograms) == 0 {
				return nil, fmt.Errorf("season programs payload is empty")
			}

			for _, program := range payload.Data.SeasonPrograms {
				if !strings.Contains(program.ID, cfg.ProgramID) {
					continue
				}
				points, err := coerceNumber(program.State.TotalPoints)
				if err != nil {
					return nil, fmt.Errorf("program %s total points: %w", program.ID, err)
				}
				participants, err := coerceNumber(program.State.ParticipantCount)
				if err != nil {
					return nil, fmt.Errorf("program %s participant count: %w", program.ID, err)
				}
				return []any{points, int(participants)}, nil
			}

			return nil, fmt.Errorf("program %q not found in season programs", cfg.ProgramID)
		},
	}
}
