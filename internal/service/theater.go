package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
)

// TheaterStore is the persistence surface the theater service needs.
// *repository.Store satisfies it; tests substitute a fake.
type TheaterStore interface {
	CreateShowroom(ctx context.Context, room *model.Showroom, seats []model.ShowroomSeat) error
	ShowroomByID(ctx context.Context, id uint64) (*model.Showroom, error)
	ListShowrooms(ctx context.Context) ([]model.Showroom, error)
	SeatsByShowroom(ctx context.Context, showroomID uint64) ([]model.ShowroomSeat, error)
	DeleteShowroom(ctx context.Context, id uint64) error

	MovieByID(ctx context.Context, id uint64) (*model.Movie, error)
	CreateScreening(ctx context.Context, sc *model.Screening) error
	ScreeningByID(ctx context.Context, id uint64) (*model.Screening, error)
	ScreeningsByShowroom(ctx context.Context, showroomID uint64) ([]model.Screening, error)
	ScreeningsByMovie(ctx context.Context, movieID uint64) ([]model.Screening, error)
	SeatsByScreening(ctx context.Context, screeningID uint64) ([]model.ScreeningSeat, error)
	DeleteScreening(ctx context.Context, id uint64) error
}

// TheaterService manages showroom layouts and the screening schedule.
type TheaterService struct {
	store TheaterStore
	log   zerolog.Logger
}

func NewTheaterService(store TheaterStore, log zerolog.Logger) *TheaterService {
	return &TheaterService{store: store, log: log.With().Str("svc", "theater").Logger()}
}

// DefineShowroom creates a showroom and its full seat grid.  Rows are
// lettered A.. and capped at 26; seats are numbered 1..seatsPerRow.
func (s *TheaterService) DefineShowroom(ctx context.Context, letter model.RoomLetter, rows, seatsPerRow int) (*model.Showroom, error) {
	if !letter.Valid() {
		return nil, fmt.Errorf("%w: showroom letter must be a single letter A-Z", ErrInvalidArgument)
	}
	if rows < 1 || rows > 26 {
		return nil, fmt.Errorf("%w: rows must be between 1 and 26", ErrInvalidArgument)
	}
	if seatsPerRow < 1 {
		return nil, fmt.Errorf("%w: seats per row must be at least 1", ErrInvalidArgument)
	}
	room := &model.Showroom{Letter: letter, Rows: uint32(rows), SeatsPerRow: uint32(seatsPerRow)}
	seats := model.SeatGrid(uint32(rows), uint32(seatsPerRow))
	if err := s.store.CreateShowroom(ctx, room, seats); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: showroom %s already exists", ErrConflict, letter)
		}
		return nil, err
	}
	s.log.Info().Uint64("showroom_id", room.ID).Str("letter", string(letter)).
		Int("rows", rows).Int("seats_per_row", seatsPerRow).Msg("showroom defined")
	return room, nil
}

// Showroom returns one showroom with its seat grid.
func (s *TheaterService) Showroom(ctx context.Context, id uint64) (*model.Showroom, []model.ShowroomSeat, error) {
	room, err := s.store.ShowroomByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowroomNotFound) {
			return nil, nil, fmt.Errorf("%w: showroom %d", ErrNotFound, id)
		}
		return nil, nil, err
	}
	seats, err := s.store.SeatsByShowroom(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return room, seats, nil
}

// Showrooms lists every showroom.
func (s *TheaterService) Showrooms(ctx context.Context) ([]model.Showroom, error) {
	return s.store.ListShowrooms(ctx)
}

// RemoveShowroom deletes a showroom and everything scheduled in it.
func (s *TheaterService) RemoveShowroom(ctx context.Context, id uint64) error {
	if err := s.store.DeleteShowroom(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowroomNotFound) {
			return fmt.Errorf("%w: showroom %d", ErrNotFound, id)
		}
		return err
	}
	s.log.Info().Uint64("showroom_id", id).Msg("showroom removed")
	return nil
}

// ScheduleScreening books a showroom for a movie starting at showAt.
// The screening runs for the movie's duration; it is rejected with
// Conflict when it would overlap another screening in the same room,
// inclusively on both endpoints.  The overlap check happens inside the
// creating transaction, so two concurrent schedules for the same room
// cannot both pass it.
func (s *TheaterService) ScheduleScreening(ctx context.Context, movieID, showroomID uint64, showAt time.Time) (*model.Screening, error) {
	movie, err := s.store.MovieByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, movieID)
		}
		return nil, err
	}
	endAt := showAt.Add(movie.Duration.Std())
	sc := &model.Screening{MovieID: movieID, ShowroomID: showroomID, ShowAt: showAt.UTC(), EndAt: endAt.UTC()}
	if err := s.store.CreateScreening(ctx, sc); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("%w: showroom %d already has a screening overlapping %s to %s",
				ErrConflict, showroomID, sc.ShowAt.Format(time.RFC3339), sc.EndAt.Format(time.RFC3339))
		case errors.Is(err, repository.ErrShowroomNotFound):
			return nil, fmt.Errorf("%w: showroom %d", ErrNotFound, showroomID)
		}
		return nil, err
	}
	s.log.Info().Uint64("screening_id", sc.ID).Uint64("movie_id", movieID).
		Uint64("showroom_id", showroomID).Time("show_at", sc.ShowAt).Msg("screening scheduled")
	return sc, nil
}

// Screening returns one screening.
func (s *TheaterService) Screening(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, err := s.store.ScreeningByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return nil, fmt.Errorf("%w: screening %d", ErrNotFound, id)
		}
		return nil, err
	}
	return sc, nil
}

// ScreeningsByShowroom lists a room's schedule.
func (s *TheaterService) ScreeningsByShowroom(ctx context.Context, showroomID uint64) ([]model.Screening, error) {
	if _, err := s.store.ShowroomByID(ctx, showroomID); err != nil {
		if errors.Is(err, repository.ErrShowroomNotFound) {
			return nil, fmt.Errorf("%w: showroom %d", ErrNotFound, showroomID)
		}
		return nil, err
	}
	return s.store.ScreeningsByShowroom(ctx, showroomID)
}

// ScreeningsByMovie lists a movie's showtimes.
func (s *TheaterService) ScreeningsByMovie(ctx context.Context, movieID uint64) ([]model.Screening, error) {
	if _, err := s.store.MovieByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, movieID)
		}
		return nil, err
	}
	return s.store.ScreeningsByMovie(ctx, movieID)
}

// SeatMap returns a screening's seats, ordered by row then number, with
// their booked state.
func (s *TheaterService) SeatMap(ctx context.Context, screeningID uint64) ([]model.ScreeningSeat, error) {
	if _, err := s.store.ScreeningByID(ctx, screeningID); err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return nil, fmt.Errorf("%w: screening %d", ErrNotFound, screeningID)
		}
		return nil, err
	}
	return s.store.SeatsByScreening(ctx, screeningID)
}

// CancelScreening deletes a screening, its seat snapshot and its
// tickets.
func (s *TheaterService) CancelScreening(ctx context.Context, id uint64) error {
	if err := s.store.DeleteScreening(ctx, id); err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return fmt.Errorf("%w: screening %d", ErrNotFound, id)
		}
		return err
	}
	s.log.Info().Uint64("screening_id", id).Msg("screening cancelled")
	return nil
}
