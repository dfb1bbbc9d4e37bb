package enums

import "fmt"

// OutboxAggregateType mirrors the aggregate_type column enum.
type OutboxAggregateType string

// OutboxEventType mirrors the event_type column enum.
type OutboxEventType string

const (
	AggregatePayment  OutboxAggregateType = "payment"
	AggregateOrder    OutboxAggregateType = "order"
	AggregateBusiness OutboxAggregateType = "business"
	AggregateReview   OutboxAggregateType = "review"

	EventPaymentSucceeded OutboxEventType = "payment_succeeded"
	EventPaymentFailed    OutboxEventType = "payment_failed"
	EventPaymentCanceled  OutboxEventType = "payment_canceled"
	EventBusinessApproved OutboxEventType = "business_approved"
	EventBusinessRejected OutboxEventType = "business_rejected"
	EventReviewCreated    OutboxEventType = "review_created"
)

var aggregateTypeSet = map[OutboxAggregateType]struct{}{
	AggregatePayment:  {},
	AggregateOrder:    {},
	AggregateBusiness: {},
	AggregateReview:   {},
}

var outboxEventTypeSet = map[OutboxEventType]struct{}{
	EventPaymentSucceeded: {},
	EventPaymentFailed:    {},
	EventPaymentCanceled:  {},
	EventBusinessApproved: {},
	EventBusinessRejected: {},
	EventReviewCreated:    {},
}

func (a OutboxAggregateType) IsValid() bool {
	_, ok := aggregateTypeSet[a]
	return ok
}

func (e OutboxEventType) IsValid() bool {
	_, ok := outboxEventTypeSet[e]
	return ok
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	a := OutboxAggregateType(value)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown aggregate type %q", value)
	}
	return a, nil
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", fmt.Errorf("unknown event type %q", value)
	}
	return e, nil
}
