package model

import (
	"errors"
	"time"
)

// 配送に関する操作
type DeliveryAction string

const (
	//管理者/CSによる配送員の割当て
	DeliveryActionAssign DeliveryAction = "assign"

	//以下は配送員本人の操作
	DeliveryActionAccepted  DeliveryAction = "accepted"
	DeliveryActionRejected  DeliveryAction = "rejected"
	DeliveryActionInTransit DeliveryAction = "in_transit"
	DeliveryActionDelivered DeliveryAction = "delivered"
	DeliveryActionFailed    DeliveryAction = "failed"
)

var DeliveryActions = []DeliveryAction{
	DeliveryActionAssign,
	DeliveryActionAccepted,
	DeliveryActionRejected,
	DeliveryActionInTransit,
	DeliveryActionDelivered,
	DeliveryActionFailed,
}

var (
	ErrInvalidDeliveryAction = errors.New("invalid delivery action")
	ErrTransitionNotAllowed  = errors.New("delivery transition not allowed")
)

func ParseDeliveryAction(s string) (DeliveryAction, error) {
	for _, a := range DeliveryActions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrInvalidDeliveryAction
}

type TransitionInput struct {
	//assignのときの配送員
	DeliveryPersonID int64
	Now              time.Time
}

type DeliveryTransition struct {
	DeliveryStatus DeliveryStatus
	Status         OrderStatus
	effect         func(o *Order, in TransitionInput)
}

type transitionKey struct {
	from   DeliveryStatus
	action DeliveryAction
}

func assignEffect(o *Order, in TransitionInput) {
	id := in.DeliveryPersonID
	o.DeliveryPersonID = &id
}

func rejectEffect(o *Order, _ TransitionInput) {
	o.DeliveryPersonID = nil
}

func deliveredEffect(o *Order, in TransitionInput) {
	t := in.Now
	o.DeliveryDate = &t
}

func failedEffect(o *Order, _ TransitionInput) {
	o.DeliveryAttempts++
}

var (
	toAssigned  = DeliveryTransition{DeliveryStatusAssigned, OrderStatusAssignedToDelivery, assignEffect}
	toAccepted  = DeliveryTransition{DeliveryStatusAccepted, OrderStatusDeliveryAccepted, nil}
	toRejected  = DeliveryTransition{DeliveryStatusRejected, OrderStatusReadyForDelivery, rejectEffect}
	toInTransit = DeliveryTransition{DeliveryStatusInTransit, OrderStatusOutForDelivery, nil}
	toDelivered = DeliveryTransition{DeliveryStatusDelivered, OrderStatusDelivered, deliveredEffect}
	toFailed    = DeliveryTransition{DeliveryStatusFailed, OrderStatusDeliveryFailed, failedEffect}
)

// (現在の配送状態, 操作) -> 遷移先。ここに無い組み合わせは全て拒否
var deliveryTransitions = map[transitionKey]DeliveryTransition{
	{DeliveryStatusNotAssigned, DeliveryActionAssign}: toAssigned,
	{DeliveryStatusAssigned, DeliveryActionAssign}:    toAssigned,
	{DeliveryStatusRejected, DeliveryActionAssign}:    toAssigned,
	{DeliveryStatusFailed, DeliveryActionAssign}:      toAssigned,

	{DeliveryStatusAssigned, DeliveryActionAccepted}: toAccepted,

	{DeliveryStatusAssigned, DeliveryActionRejected}: toRejected,
	{DeliveryStatusAccepted, DeliveryActionRejected}: toRejected,

	{DeliveryStatusAccepted, DeliveryActionInTransit}: toInTransit,

	{DeliveryStatusInTransit, DeliveryActionDelivered}: toDelivered,

	{DeliveryStatusAccepted, DeliveryActionFailed}:  toFailed,
	{DeliveryStatusInTransit, DeliveryActionFailed}: toFailed,
}

func LookupDeliveryTransition(from DeliveryStatus, action DeliveryAction) (DeliveryTransition, bool) {
	t, ok := deliveryTransitions[transitionKey{from: from, action: action}]
	return t, ok
}

// 遷移表に従って状態を変える。変更できないときは注文をそのままにしてエラー
func (o *Order) ApplyDeliveryAction(action DeliveryAction, in TransitionInput) error {
	if _, err := ParseDeliveryAction(string(action)); err != nil {
		return err
	}
	if o.Status.Terminal() {
		return ErrOrderFinalized
	}

	t, ok := LookupDeliveryTransition(o.DeliveryStatus, action)
	if !ok {
		return ErrTransitionNotAllowed
	}

	o.DeliveryStatus = t.DeliveryStatus
	o.Status = t.Status
	if t.effect != nil {
		t.effect(o, in)
	}
	return nil
}
