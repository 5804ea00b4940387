package checkin

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
)

type CheckInUseCase interface {
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)
}

type checkInUseCase struct {
	logger             *logrus.Logger
	timeout            time.Duration
	attendeeRepository AttendeeRepository
}

type CheckInUseCaseProperty struct {
	Logger             *logrus.Logger
	Timeout            time.Duration
	AttendeeRepository AttendeeRepository
}

func NewCheckInUseCase(props CheckInUseCaseProperty) CheckInUseCase {
	return &checkInUseCase{
		logger:             props.Logger,
		timeout:            props.Timeout,
		attendeeRepository: props.AttendeeRepository,
	}
}

// CheckIn implements CheckInUseCase.
//
// The transition is a single conditional update, so two simultaneous
// scans of the same ticket resolve to exactly one success. A duplicate
// scan still answers with the attendee's identity; the operator needs
// to see whose ticket was presented.
func (u *checkInUseCase) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	attendee, err := u.attendeeRepository.FindByIDAndEventID(ctx, req.TicketID, req.EventID, nil)
	if err != nil {
		return CheckInResponse{}, err
	}

	if err := u.attendeeRepository.MarkCheckedIn(ctx, attendee.ID, nil); err != nil {
		if errors.Destruct(err).HTTPStatusCode == http.StatusConflict {
			attendee.CheckedIn = true

			resp := CheckInResponse{}
			resp.PopulateFromEntity(attendee)

			return resp, err
		}

		return CheckInResponse{}, err
	}

	attendee.CheckedIn = true

	resp := CheckInResponse{}
	resp.PopulateFromEntity(attendee)

	return resp, nil
}
