package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/mapexport"
	"carpool/internal/service"
)

const fileMode = 0o644

var (
	driverFlag = &cli.StringFlag{
		Name:     "driver",
		Usage:    "Driver ID",
		Required: true,
	}

	riderFlag = &cli.StringFlag{
		Name:     "rider",
		Usage:    "Rider ID",
		Required: true,
	}

	candidateFlag = &cli.StringFlag{
		Name:  "candidate",
		Usage: "Rider ID to highlight on the map (optional)",
	}

	outFlag = &cli.StringFlag{
		Name:     "out",
		Usage:    "Path of the GeoJSON file to write",
		Required: true,
	}

	seedDriversFlag = &cli.IntFlag{
		Name:  "drivers",
		Usage: "Number of drivers to generate",
		Value: 10,
	}

	seedRidersFlag = &cli.IntFlag{
		Name:  "riders",
		Usage: "Number of riders to generate",
		Value: 10,
	}

	seedValueFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Random seed, same seed same data",
		Value: 1,
	}

	seedCmd = &cli.Command{
		Name:   "seed",
		Usage:  "Generate random drivers and riders around the workplaces",
		Flags:  []cli.Flag{seedDriversFlag, seedRidersFlag, seedValueFlag},
		Action: cmdSeed,
	}

	rankCmd = &cli.Command{
		Name:   "rank",
		Usage:  "Rank candidate riders for a driver",
		Flags:  []cli.Flag{driverFlag},
		Action: cmdRank,
	}

	summaryCmd = &cli.Command{
		Name:   "summary",
		Usage:  "Print the ride summary of a driver",
		Flags:  []cli.Flag{driverFlag},
		Action: cmdSummary,
	}

	addCmd = &cli.Command{
		Name:   "add",
		Usage:  "Add a rider to a driver's ride",
		Flags:  []cli.Flag{driverFlag, riderFlag},
		Action: cmdAdd,
	}

	removeCmd = &cli.Command{
		Name:   "remove",
		Usage:  "Remove a rider from a driver's ride",
		Flags:  []cli.Flag{driverFlag, riderFlag},
		Action: cmdRemove,
	}

	exportCmd = &cli.Command{
		Name:   "export",
		Usage:  "Write a driver's ride as GeoJSON",
		Flags:  []cli.Flag{driverFlag, candidateFlag, outFlag},
		Action: cmdExport,
	}
)

type seedOutput struct {
	DriverIDs []string `json:"driver_ids" yaml:"driver_ids"`
	RiderIDs  []string `json:"rider_ids" yaml:"rider_ids"`
	Skipped   int      `json:"skipped" yaml:"skipped"`
}

type candidateOutput struct {
	Rank              int     `json:"rank" yaml:"rank"`
	RiderID           string  `json:"rider_id" yaml:"rider_id"`
	RiderName         string  `json:"rider_name" yaml:"rider_name"`
	Score             float64 `json:"score" yaml:"score"`
	DetourMinutes     float64 `json:"detour_minutes" yaml:"detour_minutes"`
	ClosestDistanceKm float64 `json:"closest_distance_km" yaml:"closest_distance_km"`
	DetourDistanceKm  float64 `json:"detour_distance_km" yaml:"detour_distance_km"`
	InRide            bool    `json:"in_ride" yaml:"in_ride"`
	WithinDetourLimit bool    `json:"within_detour_limit" yaml:"within_detour_limit"`
}

type rideOutput struct {
	RideID          string   `json:"ride_id" yaml:"ride_id"`
	RiderIDs        []string `json:"rider_ids" yaml:"rider_ids"`
	DistanceKm      float64  `json:"distance_km" yaml:"distance_km"`
	DurationMinutes float64  `json:"duration_minutes" yaml:"duration_minutes"`
	DetourMinutes   float64  `json:"detour_minutes" yaml:"detour_minutes"`
}

func toCandidateOutput(scores []domain.MatchScore) []candidateOutput {
	out := make([]candidateOutput, 0, len(scores))
	for i, s := range scores {
		out = append(out, candidateOutput{
			Rank:              i + 1,
			RiderID:           s.RiderID,
			RiderName:         s.RiderName,
			Score:             s.Score,
			DetourMinutes:     s.DetourTime.Minutes(),
			ClosestDistanceKm: s.ClosestDistanceKm,
			DetourDistanceKm:  s.DetourDistanceKm,
			InRide:            s.InRide,
			WithinDetourLimit: s.WithinDetourLimit,
		})
	}
	return out
}

func toRideOutput(r *domain.Ride) rideOutput {
	return rideOutput{
		RideID:          r.ID,
		RiderIDs:        r.RiderIDs,
		DistanceKm:      r.Route.DistanceKm,
		DurationMinutes: r.Route.Duration.Minutes(),
		DetourMinutes:   r.Detour().Minutes(),
	}
}

func output(cmd *cli.Command, v any) error {
	root := cmd.Root()
	return printOutput(root.Writer, root.String(formatFlag.Name), v)
}

func cmdSeed(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	result, err := e.services.Seeder.Generate(ctx, service.SeedRequest{
		Drivers: cmd.Int(seedDriversFlag.Name),
		Riders:  cmd.Int(seedRidersFlag.Name),
		Seed:    cmd.Uint64(seedValueFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	return output(cmd, seedOutput{
		DriverIDs: result.DriverIDs,
		RiderIDs:  result.RiderIDs,
		Skipped:   result.Skipped,
	})
}

func cmdRank(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	scores, err := e.services.Matching.RankRiders(ctx, cmd.String(driverFlag.Name))
	if err != nil {
		return fmt.Errorf("ranking riders: %w", err)
	}

	return output(cmd, toCandidateOutput(scores))
}

func cmdSummary(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	summary, err := e.services.Rides.RideSummary(ctx, cmd.String(driverFlag.Name))
	if err != nil {
		return fmt.Errorf("building summary: %w", err)
	}

	return service.FormatSummary(cmd.Root().Writer, summary)
}

func cmdAdd(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	ride, err := e.services.Rides.AddRider(ctx, cmd.String(driverFlag.Name), cmd.String(riderFlag.Name))
	if err != nil {
		return fmt.Errorf("adding rider: %w", err)
	}

	return output(cmd, toRideOutput(ride))
}

func cmdRemove(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	ride, err := e.services.Rides.RemoveRider(ctx, cmd.String(driverFlag.Name), cmd.String(riderFlag.Name))
	if err != nil {
		return fmt.Errorf("removing rider: %w", err)
	}

	return output(cmd, toRideOutput(ride))
}

func cmdExport(ctx context.Context, cmd *cli.Command) error {
	e, err := openEnv(ctx, cmd)
	if err != nil {
		return err
	}

	summary, err := e.services.Rides.RideOverview(ctx, cmd.String(driverFlag.Name))
	if err != nil {
		return fmt.Errorf("loading ride: %w", err)
	}

	var candidate *domain.Rider
	if id := cmd.String(candidateFlag.Name); id != "" {
		if candidate, err = e.services.Riders.GetRider(ctx, id); err != nil {
			return fmt.Errorf("loading candidate: %w", err)
		}
	}

	data, err := mapexport.Marshal(mapexport.RideFeatureCollection(summary, candidate))
	if err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}

	path := cmd.String(outFlag.Name)
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	e.logger.Info("ride exported", zap.String("ride_id", summary.RideID), zap.String("path", path))
	fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
	return nil
}
