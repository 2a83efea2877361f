package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"sender_type", validateSenderType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"application_status", validateApplicationStatusType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"chat_event_type", validateChatEventType,
	); err != nil {
		return err
	}

	return nil
}

func validateSenderType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SenderTypeENUMType(fl.Field().String()) {
	case SenderTypeRecruiter:
		fallthrough
	case SenderTypeReferee:
		return true
	}
	return false
}

func validateApplicationStatusType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ApplicationStatusENUMType(fl.Field().String()) {
	case ApplicationStatusSubmitted:
		fallthrough
	case ApplicationStatusUnderReview:
		fallthrough
	case ApplicationStatusRefereeContacted:
		fallthrough
	case ApplicationStatusVerified:
		fallthrough
	case ApplicationStatusRejected:
		fallthrough
	case ApplicationStatusHired:
		return true
	}
	return false
}

func validateChatEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ChatEventTypeENUMType(fl.Field().String()) {
	case ChatEventTypeChatCreated:
		fallthrough
	case ChatEventTypeMessageAppended:
		fallthrough
	case ChatEventTypeTokenFallbackMatch:
		fallthrough
	case ChatEventTypeApplicationAdvanced:
		return true
	}
	return false
}
