package service

import (
	"github.com/google/uuid"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/notifications"
)

func newClientEvent(t notifications.EventType, c clientModel.ClientModel, actor Actor) notifications.Event {
	ev := notifications.NewEvent(t, c.ClientID)
	ev.ClientEmail = c.EmailOrEmpty()
	ev.ClientName = c.FullName()
	ev.ActorUserID = actor.userRef()
	return ev
}

func slotPayload(b *bookingModel.BookingModel, sch *scheduleModel.ScheduleModel) map[string]any {
	p := map[string]any{
		"booking_id":  b.BookingID,
		"schedule_id": b.BookingScheduleID,
		"class_date":  dbtime.FormatDate(b.BookingClassDate),
		"status":      b.BookingStatus,
	}
	if sch != nil {
		p["start_time"] = sch.ScheduleStartTime.String()
		p["class_type"] = sch.ScheduleClassType
		p["sede_id"] = sch.ScheduleSedeID
	}
	return p
}

func admissionEvent(adm *Admission, actor Actor) notifications.Event {
	t := notifications.EventBookingConfirmed
	if adm.Booking.BookingStatus == bookingModel.BookingStatusPending {
		t = notifications.EventBookingPendingPayment
	}
	ev := newClientEvent(t, adm.Client, actor)
	ev.BookingIDs = []uuid.UUID{adm.Booking.BookingID}
	ev.Payload = slotPayload(adm.Booking, &adm.Schedule)
	ev.Payload["mode"] = adm.Mode.ModeName()
	ev.Payload["is_trial"] = adm.Booking.BookingIsTrial
	return ev
}

func cancellationEvent(b *bookingModel.BookingModel, c clientModel.ClientModel, sch *scheduleModel.ScheduleModel, actor Actor) notifications.Event {
	ev := newClientEvent(notifications.EventBookingCancelled, c, actor)
	ev.BookingIDs = []uuid.UUID{b.BookingID}
	ev.Payload = slotPayload(b, sch)
	if b.BookingCancellationType != nil {
		ev.Payload["cancelled_by"] = *b.BookingCancellationType
	}
	if b.BookingCancellationReason != nil {
		ev.Payload["reason"] = *b.BookingCancellationReason
	}
	return ev
}

func rescheduleEvent(b *bookingModel.BookingModel, c clientModel.ClientModel, to *scheduleModel.ScheduleModel, fromSchedule uuid.UUID, fromDate string, actor Actor) notifications.Event {
	ev := newClientEvent(notifications.EventBookingRescheduled, c, actor)
	ev.BookingIDs = []uuid.UUID{b.BookingID}
	ev.Payload = slotPayload(b, to)
	ev.Payload["previous_schedule_id"] = fromSchedule
	ev.Payload["previous_class_date"] = fromDate
	return ev
}

func bulkEvent(res *BulkResult, c clientModel.ClientModel, actor Actor) notifications.Event {
	ev := newClientEvent(notifications.EventBulkCompleted, c, actor)
	items := make([]map[string]any, 0, res.SuccessfulBookings)
	for _, r := range res.Results {
		if !r.Success || r.BookingID == nil {
			continue
		}
		ev.BookingIDs = append(ev.BookingIDs, *r.BookingID)
		items = append(items, map[string]any{
			"booking_id":  *r.BookingID,
			"schedule_id": r.ScheduleID,
			"class_date":  r.ClassDate,
			"status":      r.Status,
		})
	}
	ev.Payload = map[string]any{
		"bulk_booking_id":     res.BulkBookingID,
		"status":              res.Status,
		"successful_bookings": res.SuccessfulBookings,
		"failed_bookings":     res.FailedBookings,
		"bookings":            items,
	}
	return ev
}

func depositEvent(b *bookingModel.BookingModel, c clientModel.ClientModel, paymentID uuid.UUID) notifications.Event {
	ev := newClientEvent(notifications.EventDepositConfirmed, c, Actor{})
	ev.BookingIDs = []uuid.UUID{b.BookingID}
	ev.Payload = slotPayload(b, nil)
	ev.Payload["payment_id"] = paymentID
	return ev
}
