package rtctoken

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/imtaco/rtc-token-server/internal/errors"
	"github.com/imtaco/rtc-token-server/internal/validation"
)

var signingMethod = jwt.SigningMethodHS256

type buildInput struct {
	AppID          string `validate:"appid"`
	AppCertificate string `validate:"required"`
	ChannelName    string `validate:"channelname"`
	Role           Role   `validate:"oneof=1 2"`
}

type builderImpl struct {
	clock    clockwork.Clock
	validate *validator.Validate
}

// NewBuilder returns a Builder producing HS256 JWTs keyed by the app certificate.
func NewBuilder() Builder {
	return newBuilderWithClock(clockwork.NewRealClock())
}

func newBuilderWithClock(clock clockwork.Clock) *builderImpl {
	return &builderImpl{
		clock:    clock,
		validate: validation.New(),
	}
}

func (b *builderImpl) BuildTokenWithUID(
	appID, appCertificate, channelName string,
	uid uint32,
	role Role,
	privilegeExpire uint32,
) (string, error) {
	in := buildInput{
		AppID:          appID,
		AppCertificate: appCertificate,
		ChannelName:    channelName,
		Role:           role,
	}
	if err := b.validate.Struct(in); err != nil {
		return "", errors.Wrap(ErrInvalidInput, err, "token input rejected")
	}

	now := b.clock.Now()
	expiresAt := time.Unix(int64(privilegeExpire), 0)
	if !expiresAt.After(now) {
		return "", errors.Newf(ErrInvalidInput,
			"privilege expire %d is not after issue time %d", privilegeExpire, now.Unix())
	}

	claims := &Claims{
		AppID:      appID,
		Channel:    channelName,
		UID:        uid,
		Role:       role,
		Privileges: role.Privileges(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    appID,
			Subject:   strconv.FormatUint(uint64(uid), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(appCertificate))
	if err != nil {
		return "", errors.Wrap(ErrSign, err, "failed to sign token")
	}
	return token, nil
}
