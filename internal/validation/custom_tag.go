package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RTC channel names: 1-64 printable ASCII chars from a restricted set.
var channelNameRegex = regexp.MustCompile(`^[A-Za-z0-9 !#$%&()+\-:;<=.>?@\[\]^_{}|~,]{1,64}$`)

// ValidateChannelName implements the "channelname" tag.
func ValidateChannelName(fl validator.FieldLevel) bool {
	return channelNameRegex.MatchString(fl.Field().String())
}

func registerCustomTags(v *validator.Validate) error {
	if err := Register(v, "channelname", ValidateChannelName); err != nil {
		return err
	}
	RegisterAlias(v, "appid", "required,printascii,max=128")
	return nil
}
