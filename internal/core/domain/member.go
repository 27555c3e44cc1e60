package domain

import "time"

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleTeamManager Role = "team_manager"
	RoleMember      Role = "member"
)

type MemberScope string

const (
	ScopeOMember MemberScope = "o_member"
	ScopeIMember MemberScope = "i_member"
	ScopeSMember MemberScope = "s_member"
)

type MemberType string

const (
	TypeResidential     MemberType = "residential"
	TypeNonResidential  MemberType = "non_residential"
	TypeSemiResidential MemberType = "semi_residential"
)

type TeamManagerType string

const (
	TMHeadIncharge    TeamManagerType = "head_incharge"
	TMCoordinator     TeamManagerType = "coordinator"
	TMAccountant      TeamManagerType = "accountant"
	TMChiefCounsellor TeamManagerType = "chief_counsellor"
	TMHostelIncharge  TeamManagerType = "hostel_incharge"
	TMPrincipal       TeamManagerType = "principal"
)

type Member struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Role            Role            `json:"role"`
	MemberScope     MemberScope     `json:"member_scope"`
	Type            MemberType      `json:"type"`
	TeamManagerType TeamManagerType `json:"team_manager_type,omitempty"`
	WhatsappNumber  string          `json:"whatsapp_number"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Student struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	FatherName        string `json:"fatherName"`
	ClassName         string `json:"className"`
	ResidentialStatus string `json:"residentialStatus"`
}

// Principal is the authenticated caller as supplied by the session
// collaborator. It is input to authorization decisions, never trusted
// as a substitute for stored member data.
type Principal struct {
	ID              int64
	Role            Role
	TeamManagerType TeamManagerType
}
