package booking

// BookingStatus is the closed status enumeration for a consignment. Loose
// status strings coming from forms are rejected at the boundary; only values
// in this set exist inside the core.
type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "PENDING"
	BookingStatusBooked          BookingStatus = "BOOKED"
	BookingStatusPickupRequested BookingStatus = "PICKUP_REQUESTED"
	BookingStatusAtHub           BookingStatus = "AT_HUB"
	BookingStatusInTransit       BookingStatus = "IN_TRANSIT"
	BookingStatusAtDepot         BookingStatus = "AT_DEPOT"
	BookingStatusOutForDelivery  BookingStatus = "OUT_FOR_DELIVERY"
	BookingStatusDelivered       BookingStatus = "DELIVERED"
	BookingStatusReturned        BookingStatus = "RETURNED"
	BookingStatusVoided          BookingStatus = "VOIDED"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
)

func (bs BookingStatus) String() string {
	return string(bs)
}

// legalSuccessors is the transition table. RETURNED and VOIDED are side-exits
// from every non-terminal state; CANCELLED is only reachable pre-approval;
// AT_HUB is re-enterable from IN_TRANSIT (de-manifest / re-arrival).
var legalSuccessors = map[BookingStatus][]BookingStatus{
	BookingStatusPending:         {BookingStatusBooked, BookingStatusCancelled, BookingStatusReturned, BookingStatusVoided},
	BookingStatusBooked:          {BookingStatusPickupRequested, BookingStatusAtHub, BookingStatusReturned, BookingStatusVoided},
	BookingStatusPickupRequested: {BookingStatusBooked, BookingStatusAtHub, BookingStatusReturned, BookingStatusVoided},
	BookingStatusAtHub:           {BookingStatusInTransit, BookingStatusReturned, BookingStatusVoided},
	BookingStatusInTransit:       {BookingStatusAtDepot, BookingStatusAtHub, BookingStatusReturned, BookingStatusVoided},
	BookingStatusAtDepot:         {BookingStatusOutForDelivery, BookingStatusReturned, BookingStatusVoided},
	BookingStatusOutForDelivery:  {BookingStatusDelivered, BookingStatusReturned, BookingStatusVoided},
	BookingStatusDelivered:       {},
	BookingStatusReturned:        {},
	BookingStatusVoided:          {},
	BookingStatusCancelled:       {},
}

// IsValid reports whether the value is part of the closed enumeration.
func (bs BookingStatus) IsValid() bool {
	_, ok := legalSuccessors[bs]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (bs BookingStatus) IsTerminal() bool {
	next, ok := legalSuccessors[bs]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether next is a legal successor of bs.
func (bs BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, s := range legalSuccessors[bs] {
		if s == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether booking detail fields (addresses, weight,
// pricing) may still be changed. Past this set the booking is read-only.
func (bs BookingStatus) IsEditable() bool {
	switch bs {
	case BookingStatusPending, BookingStatusBooked, BookingStatusPickupRequested:
		return true
	default:
		return false
	}
}

// GetAllBookingStatuses returns all valid booking statuses.
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusBooked,
		BookingStatusPickupRequested,
		BookingStatusAtHub,
		BookingStatusInTransit,
		BookingStatusAtDepot,
		BookingStatusOutForDelivery,
		BookingStatusDelivered,
		BookingStatusReturned,
		BookingStatusVoided,
		BookingStatusCancelled,
	}
}
