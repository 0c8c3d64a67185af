package service

import (
	"fmt"
	"io"
	"strings"

	"carpool/internal/domain"
)

// FormatSummary writes a human-readable ride summary.
func FormatSummary(w io.Writer, summary *domain.RideSummary) error {
	driver := summary.Driver
	rule := strings.Repeat("=", 60)

	riderNames := "None"
	if len(summary.Riders) > 0 {
		names := make([]string, len(summary.Riders))
		for i, r := range summary.Riders {
			names[i] = r.Name
		}
		riderNames = strings.Join(names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nRide Summary for %s\n%s\n\n", rule, driver.Name, rule)

	b.WriteString("General Information:\n")
	fmt.Fprintf(&b, "- Driver: %s\n", driver.Name)
	fmt.Fprintf(&b, "- Workplace: %s %s\n", driver.Workplace.Name, driver.Workplace.Location)
	fmt.Fprintf(&b, "- Max Riders: %d\n", driver.MaxRiders)
	fmt.Fprintf(&b, "- Max Detour: %.2f minutes\n", driver.MaxDetour.Minutes())
	fmt.Fprintf(&b, "- Riders: %s\n", riderNames)
	fmt.Fprintf(&b, "- Total Distance: %.2f km\n", summary.DistanceKm)
	fmt.Fprintf(&b, "- Total Duration: %.2f minutes\n", summary.Duration.Minutes())
	fmt.Fprintf(&b, "- Detour: %.2f minutes\n", summary.Detour.Minutes())
	fmt.Fprintf(&b, "- Direct Duration (no riders): %.2f minutes\n\n", summary.DirectDuration.Minutes())

	b.WriteString("Pickup Order:\n")
	for i, stop := range summary.Stops {
		fmt.Fprintf(&b, "%d. %s (%s) at %s\n", i+1, stop.Name, roleLabel(stop.Role), stop.Point)
	}
	b.WriteString("\n")

	b.WriteString("Segment Durations:\n")
	for _, leg := range summary.Legs {
		fmt.Fprintf(&b, "- %s to %s: %.2f minutes\n", leg.From, leg.To, leg.Duration.Minutes())
	}
	b.WriteString("\n")

	if len(summary.FailedAttempts) > 0 {
		b.WriteString("Failed Assignment Attempts:\n")
		for _, attempt := range summary.FailedAttempts {
			fmt.Fprintf(&b, "- %s\n", attempt)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func roleLabel(role domain.StopRole) string {
	switch role {
	case domain.StopRoleDriver:
		return "Driver"
	case domain.StopRoleRider:
		return "Rider"
	case domain.StopRoleWorkplace:
		return "Workplace"
	}
	return string(role)
}
