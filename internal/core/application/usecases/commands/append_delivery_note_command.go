package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAppendDeliveryNoteCommandIsNotConstructed = errors.New(
	"AppendDeliveryNoteCommand must be created via NewAppendDeliveryNoteCommand constructor",
)

type AppendDeliveryNoteCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	text       string

	guard guard.ConstructorGuard
}

func NewAppendDeliveryNoteCommand(deliveryID kernel.UUID, text string) (AppendDeliveryNoteCommand, error) {
	text = strings.TrimSpace(text)

	var errList []error
	errList = append(errList, deliveryID.Validate())
	if text == "" {
		errList = append(errList, errs.NewValueIsRequiredError("note"))
	}
	if err := errors.Join(errList...); err != nil {
		return AppendDeliveryNoteCommand{}, err
	}

	return AppendDeliveryNoteCommand{
		deliveryID: deliveryID,
		text:       text,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c AppendDeliveryNoteCommand) Validate() error {
	return c.guard.Validate(ErrAppendDeliveryNoteCommandIsNotConstructed)
}

func (c AppendDeliveryNoteCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c AppendDeliveryNoteCommand) Text() string {
	return c.text
}
