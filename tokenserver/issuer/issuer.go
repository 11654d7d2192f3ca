package issuer

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/imtaco/rtc-token-server/internal/errors"
	"github.com/imtaco/rtc-token-server/internal/log"
	intotel "github.com/imtaco/rtc-token-server/internal/otel"
	"github.com/imtaco/rtc-token-server/internal/rtctoken"
	"github.com/imtaco/rtc-token-server/tokenserver"
)

// Credentials are the application id and certificate shared with the RTC
// platform. Read once at startup and never modified.
type Credentials struct {
	AppID          string `mapstructure:"app_id"`
	AppCertificate string `mapstructure:"app_certificate"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("app_id"), "")
	v.SetDefault(p("app_certificate"), "")
}

func (c Credentials) Complete() bool {
	return c.AppID != "" && c.AppCertificate != ""
}

type issuerImpl struct {
	creds   Credentials
	builder rtctoken.Builder
	clock   clockwork.Clock
	tracer  trace.Tracer
	logger  *log.Logger
}

func New(creds Credentials, builder rtctoken.Builder, logger *log.Logger) tokenserver.TokenIssuer {
	return NewWithClock(creds, builder, clockwork.NewRealClock(), logger)
}

func NewWithClock(
	creds Credentials,
	builder rtctoken.Builder,
	clock clockwork.Clock,
	logger *log.Logger,
) tokenserver.TokenIssuer {
	return &issuerImpl{
		creds:   creds,
		builder: builder,
		clock:   clock,
		tracer:  otel.Tracer("token-issuer"),
		logger:  logger,
	}
}

func (i *issuerImpl) Issue(ctx context.Context, req tokenserver.IssueRequest) (*tokenserver.IssueResult, error) {
	ctx, span := intotel.StartSpan(ctx, i.tracer, "TokenIssuer.Issue",
		attribute.String("channel", req.ChannelName))
	defer span.End()

	if req.ChannelName == "" {
		return nil, errors.New(tokenserver.ErrInvalidRequest, "channelName is required")
	}
	if !i.creds.Complete() {
		err := errors.New(tokenserver.ErrConfiguration, "app credentials are not configured")
		intotel.RecordError(span, err)
		tokensFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "configuration")))
		return nil, err
	}

	uid := resolveUID(req.UID)
	role := rtctoken.ParseRole(req.Role)
	privilegeExpire := i.clock.Now().Unix() + tokenserver.ExpiresIn
	span.SetAttributes(
		attribute.Int64("uid", int64(uid)),
		attribute.String("role", role.String()),
	)

	start := i.clock.Now()
	token, err := i.sign(req.ChannelName, uid, role, uint32(privilegeExpire))
	signDuration.Record(ctx, float64(i.clock.Since(start).Microseconds())/1000)
	if err != nil {
		i.logger.Error("Failed to generate token",
			log.String("channelName", req.ChannelName),
			log.Uint32("uid", uid),
			log.String("role", role.String()),
			log.Error(err))
		intotel.RecordError(span, err)
		tokensFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "signer")))
		return nil, errors.Wrap(tokenserver.ErrTokenGeneration, err, "signer failed")
	}

	i.logger.Debug("Token issued",
		log.String("channelName", req.ChannelName),
		log.Uint32("uid", uid),
		log.String("role", role.String()),
		log.Int64("privilegeExpire", privilegeExpire))
	tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role.String())))

	return &tokenserver.IssueResult{
		Token:       token,
		AppID:       i.creds.AppID,
		ChannelName: req.ChannelName,
		UID:         uid,
		ExpiresIn:   tokenserver.ExpiresIn,
	}, nil
}

// sign converts a signer panic into an error.
func (i *issuerImpl) sign(channelName string, uid uint32, role rtctoken.Role, privilegeExpire uint32) (token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signer panic: %v", r)
		}
	}()
	return i.builder.BuildTokenWithUID(
		i.creds.AppID,
		i.creds.AppCertificate,
		channelName,
		uid,
		role,
		privilegeExpire,
	)
}

// resolveUID maps an absent uid to 0, the anonymous uid. An explicit 0 means the same.
func resolveUID(uid *uint32) uint32 {
	if uid == nil {
		return 0
	}
	return *uid
}
