package rtctoken

import (
	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -source=types.go -destination=mocks/mock_types.go -package=mocks

// Role is the capability a token grants inside a channel.
type Role int

const (
	// send and receive media
	RolePublisher Role = 1
	// receive only
	RoleSubscriber Role = 2
)

const roleNameSubscriber = "subscriber"

// ParseRole maps "subscriber" to RoleSubscriber. Everything else, including
// the empty string and unknown names, is RolePublisher.
func ParseRole(s string) Role {
	if s == roleNameSubscriber {
		return RoleSubscriber
	}
	return RolePublisher
}

func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "publisher"
	case RoleSubscriber:
		return roleNameSubscriber
	default:
		return "unknown"
	}
}

type Privilege string

const (
	PrivilegeJoinChannel        Privilege = "joinChannel"
	PrivilegePublishAudioStream Privilege = "publishAudioStream"
	PrivilegePublishVideoStream Privilege = "publishVideoStream"
	PrivilegePublishDataStream  Privilege = "publishDataStream"
)

// Privileges lists what the role may do. Unknown roles only get to join.
func (r Role) Privileges() []Privilege {
	if r == RolePublisher {
		return []Privilege{
			PrivilegeJoinChannel,
			PrivilegePublishAudioStream,
			PrivilegePublishVideoStream,
			PrivilegePublishDataStream,
		}
	}
	return []Privilege{PrivilegeJoinChannel}
}

// Builder signs channel access tokens with the application credentials.
// privilegeExpire is an absolute unix timestamp in seconds.
type Builder interface {
	BuildTokenWithUID(appID, appCertificate, channelName string, uid uint32, role Role, privilegeExpire uint32) (string, error)
}

// Claims is the payload of a signed channel token.
type Claims struct {
	AppID      string      `json:"appId"`
	Channel    string      `json:"channel"`
	UID        uint32      `json:"uid"`
	Role       Role        `json:"role"`
	Privileges []Privilege `json:"privileges"`
	jwt.RegisteredClaims
}
