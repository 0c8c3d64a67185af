package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/routing"
	"carpool/internal/service"
)

func TestRegisterDriver_Validation(t *testing.T) {
	f := newFixture(t)

	valid := service.RegisterDriverRequest{
		Name:      "Ahmed Trabelsi",
		Home:      driverHome,
		Workplace: "STIHL",
		MaxDetour: 30 * time.Minute,
		MaxRiders: 3,
	}

	testCases := []struct {
		name    string
		mutate  func(r *service.RegisterDriverRequest)
		wantErr error
	}{
		{"empty name", func(r *service.RegisterDriverRequest) { r.Name = "  " }, service.ErrInvalidName},
		{"latitude out of range", func(r *service.RegisterDriverRequest) { r.Home.Lat = 91 }, service.ErrInvalidLocation},
		{"longitude out of range", func(r *service.RegisterDriverRequest) { r.Home.Lng = -181 }, service.ErrInvalidLocation},
		{"zero detour", func(r *service.RegisterDriverRequest) { r.MaxDetour = 0 }, service.ErrInvalidMaxDetour},
		{"no seats", func(r *service.RegisterDriverRequest) { r.MaxRiders = 0 }, service.ErrInvalidMaxRiders},
		{"too many seats", func(r *service.RegisterDriverRequest) { r.MaxRiders = 10 }, service.ErrInvalidMaxRiders},
		{"unknown workplace", func(r *service.RegisterDriverRequest) { r.Workplace = "BOSCH" }, service.ErrUnknownWorkplace},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			_, err := f.driverSvc.RegisterDriver(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if f.drivers.Count() != 0 {
		t.Errorf("expected no drivers stored, got %d", f.drivers.Count())
	}
}

func TestRegisterDriver_CreatesSoloRide(t *testing.T) {
	f := newFixture(t)

	driver, ride := f.registerDriver(t, "Ahmed Trabelsi", "STIHL", 30*time.Minute, 3)

	if driver.Workplace.Name != "STIHL" {
		t.Errorf("expected workplace STIHL, got %s", driver.Workplace.Name)
	}
	if ride.DriverID != driver.ID {
		t.Errorf("expected ride for driver %s, got %s", driver.ID, ride.DriverID)
	}
	if len(ride.RiderIDs) != 0 {
		t.Errorf("expected no riders, got %v", ride.RiderIDs)
	}
	if ride.Route.Duration != ride.DirectDuration {
		t.Errorf("expected solo route to equal direct duration, got %v vs %v", ride.Route.Duration, ride.DirectDuration)
	}
	if ride.Detour() != 0 {
		t.Errorf("expected zero detour, got %v", ride.Detour())
	}
	if len(ride.MatchedGeometry) == 0 {
		t.Error("expected matched geometry to be set")
	}
	if f.drivers.Count() != 1 || f.rides.Count() != 1 {
		t.Errorf("expected 1 driver and 1 ride, got %d and %d", f.drivers.Count(), f.rides.Count())
	}
	if f.tx.WithinTxCallCount != 1 {
		t.Errorf("expected one transaction, got %d", f.tx.WithinTxCallCount)
	}
}

func TestRegisterDriver_RouteFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.router.DirectError = routing.ErrNoRoute

	_, err := f.driverSvc.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Name:      "Omar Saidi",
		Home:      driverHome,
		Workplace: "MERCEDES",
		MaxDetour: 20 * time.Minute,
		MaxRiders: 2,
	})

	if !errors.Is(err, routing.ErrNoRoute) {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
	if f.drivers.Count() != 0 || f.rides.Count() != 0 {
		t.Errorf("expected nothing stored, got %d drivers and %d rides", f.drivers.Count(), f.rides.Count())
	}
}

func TestRegisterDriver_SnapsHome(t *testing.T) {
	f := newFixture(t)
	snapped := domain.Point{Lat: 48.7501, Lng: 9.2002}
	f.router.Snap = &snapped
	svc := service.NewDriverService(f.tx, f.drivers, f.router, f.catalog, true, zap.NewNop())

	res, err := svc.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Name:      "Lina Jebali",
		Home:      driverHome,
		Workplace: "STIHL",
		MaxDetour: 25 * time.Minute,
		MaxRiders: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Driver.Home != snapped {
		t.Errorf("expected snapped home %v, got %v", snapped, res.Driver.Home)
	}
}

func TestRegisterDriver_SnapFailureKeepsRawHome(t *testing.T) {
	f := newFixture(t)
	f.router.MatchError = routing.ErrUpstream
	svc := service.NewDriverService(f.tx, f.drivers, f.router, f.catalog, true, zap.NewNop())

	res, err := svc.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Name:      "Lina Jebali",
		Home:      driverHome,
		Workplace: "STIHL",
		MaxDetour: 25 * time.Minute,
		MaxRiders: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Driver.Home != driverHome {
		t.Errorf("expected raw home %v, got %v", driverHome, res.Driver.Home)
	}
}

func TestRegisterDriver_TransactionFailure(t *testing.T) {
	f := newFixture(t)
	f.rides.CreateError = errInjected

	_, err := f.driverSvc.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Name:      "Sami Dridi",
		Home:      driverHome,
		Workplace: "STIHL",
		MaxDetour: 25 * time.Minute,
		MaxRiders: 2,
	})

	if !errors.Is(err, errInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestGetDriver(t *testing.T) {
	f := newFixture(t)
	driver, _ := f.registerDriver(t, "Nour Karray", "STIHL", 30*time.Minute, 2)

	got, err := f.driverSvc.GetDriver(context.Background(), driver.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Nour Karray" {
		t.Errorf("expected Nour Karray, got %s", got.Name)
	}

	if _, err := f.driverSvc.GetDriver(context.Background(), ""); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}

	drivers, err := f.driverSvc.ListDrivers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drivers) != 1 {
		t.Errorf("expected 1 driver, got %d", len(drivers))
	}
}

func TestRegisterRider_IndexesHome(t *testing.T) {
	f := newFixture(t)

	rider := f.registerRider(t, "Sara Mejri", "STIHL", nearRouteHome)

	if rider.HasRide() {
		t.Error("expected new rider to be unassigned")
	}
	if rider.DirectDuration <= 0 || rider.DirectDistanceKm <= 0 {
		t.Errorf("expected direct commute to be set, got %v / %f", rider.DirectDuration, rider.DirectDistanceKm)
	}
	if f.locations.AddCallCount != 1 {
		t.Errorf("expected home to be indexed once, got %d", f.locations.AddCallCount)
	}
}

func TestRegisterRider_IndexFailureStillRegisters(t *testing.T) {
	f := newFixture(t)
	f.locations.AddError = errInjected

	rider := f.registerRider(t, "Sara Mejri", "STIHL", nearRouteHome)

	if f.riders.GetRider(rider.ID) == nil {
		t.Error("expected rider to be stored")
	}
}

func TestRegisterRider_Validation(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name    string
		req     service.RegisterRiderRequest
		wantErr error
	}{
		{"empty name", service.RegisterRiderRequest{Home: nearRouteHome, Workplace: "STIHL"}, service.ErrInvalidName},
		{"invalid home", service.RegisterRiderRequest{Name: "Hiba", Home: domain.Point{Lat: -100}, Workplace: "STIHL"}, service.ErrInvalidLocation},
		{"unknown workplace", service.RegisterRiderRequest{Name: "Hiba", Home: nearRouteHome, Workplace: "PORSCHE"}, service.ErrUnknownWorkplace},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.riderSvc.RegisterRider(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if f.riders.CreateCallCount != 0 {
		t.Errorf("expected no riders created, got %d", f.riders.CreateCallCount)
	}
}
