package quest

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/spf13/cobra"
)

// Cmd is the quest command group
var Cmd = &cobra.Command{
	Use:   "quest",
	Short: "Manage quests",
	Long:  `Create, list, complete, and skip your quests.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(skipCmd)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseRecurrence converts "mon,wed,fri" into weekdays.
func parseRecurrence(spec string) (domain.Weekdays, error) {
	if spec == "" || spec == "daily" {
		return domain.EveryDay(), nil
	}

	var days domain.Weekdays
	for _, part := range strings.Split(spec, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q (use mon..sun or daily)", part)
		}
		days = append(days, day)
	}
	return days, nil
}
