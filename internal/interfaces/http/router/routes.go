package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/interfaces/http/handler"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler the server mounts
type Handlers struct {
	AdminAuth    *handler.AuthHandler
	PDAuth       *handler.AuthHandler
	Dashboard    *handler.DashboardHandler
	Cases        *handler.CaseHandler
	Worklist     *handler.WorklistHandler
	Pools        *handler.PoolHandler
	PDs          *handler.PDHandler
	Applications *handler.ApplicationHandler
	Channels     *handler.ChannelHandler
	Earnings     *handler.EarningsHandler
	Audit        *handler.AuditHandler
	Users        *handler.UserHandler
	Outbox       *handler.OutboxHandler
	Intake       *handler.IntakeHandler
	Portal       *handler.PortalHandler
}

// Guards holds the middleware placed in front of protected routes
type Guards struct {
	AdminSession gin.HandlerFunc
	PDSession    gin.HandlerFunc
	// LoginLimit and TrackLimit may be nil when rate limiting is off
	LoginLimit gin.HandlerFunc
	TrackLimit gin.HandlerFunc
}

func limited(limit gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{limit, h}
}

func can(perms ...string) gin.HandlerFunc {
	return middleware.RequirePermission(perms...)
}

// AdminRoutes builds the /admin surface used by staff
func AdminRoutes(h Handlers, g Guards) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")
	admin.POST("/auth/login", limited(g.LoginLimit, h.AdminAuth.Login)...)

	s := admin.Group("admin-session", "", g.AdminSession)
	s.POST("/auth/logout", h.AdminAuth.Logout)
	s.POST("/auth/refresh", h.AdminAuth.Refresh)
	s.GET("/auth/me", h.AdminAuth.Me)
	s.PUT("/auth/password", h.AdminAuth.ChangePassword)

	s.GET("/dashboard", can(identity.PermCasesRead), h.Dashboard.Summary)

	// Cases
	s.GET("/cases", can(identity.PermCasesRead), h.Cases.List)
	s.GET("/cases/export", can(identity.PermCasesExport), h.Cases.Export)
	s.GET("/cases/:id", can(identity.PermCasesRead), h.Cases.Get)
	s.PATCH("/cases/:id/status", can(identity.PermCasesWrite), h.Cases.ChangeStatus)
	s.POST("/cases/:id/assign", can(identity.PermCasesAssign), h.Cases.Assign)
	s.POST("/cases/:id/unassign", can(identity.PermCasesAssign), h.Cases.Unassign)
	s.POST("/cases/:id/pool", can(identity.PermCasesAssign), h.Cases.RouteToPool)
	s.PUT("/cases/:id/routing", can(identity.PermCasesWrite), h.Cases.SetRouting)
	s.GET("/cases/:id/contacts", can(identity.PermCasesRead), h.Cases.ListContacts)
	s.POST("/cases/:id/contacts", can(identity.PermCasesWrite), h.Cases.LogContact)
	s.GET("/cases/:id/escalations", can(identity.PermCasesRead), h.Cases.ListEscalations)
	s.POST("/cases/:id/escalations", can(identity.PermEscalationsWrite), h.Cases.RaiseEscalation)
	s.GET("/cases/:id/compliance-flags", can(identity.PermCasesRead), h.Cases.ListFlags)
	s.POST("/cases/:id/compliance-flags", can(identity.PermComplianceWrite), h.Cases.RaiseFlag)

	// Worklists
	s.GET("/escalations", can(identity.PermCasesRead), h.Worklist.ListEscalations)
	s.POST("/escalations/:id/acknowledge", can(identity.PermEscalationsWrite), h.Worklist.AcknowledgeEscalation)
	s.POST("/escalations/:id/resolve", can(identity.PermEscalationsWrite), h.Worklist.ResolveEscalation)
	s.GET("/compliance-flags", can(identity.PermCasesRead), h.Worklist.ListFlags)
	s.POST("/compliance-flags/:id/clear", can(identity.PermComplianceWrite), h.Worklist.ClearFlag)

	// Pools
	s.GET("/pools", can(identity.PermCasesRead), h.Pools.List)
	s.GET("/pools/:id", can(identity.PermCasesRead), h.Pools.Get)
	s.POST("/pools", can(identity.PermPoolsWrite), h.Pools.Create)
	s.PUT("/pools/:id", can(identity.PermPoolsWrite), h.Pools.Update)
	s.POST("/pools/:id/activate", can(identity.PermPoolsWrite), h.Pools.Activate)
	s.POST("/pools/:id/deactivate", can(identity.PermPoolsWrite), h.Pools.Deactivate)

	// Pathway developers
	s.GET("/pds", can(identity.PermPDsRead), h.PDs.List)
	s.GET("/pds/:id", can(identity.PermPDsRead), h.PDs.Get)
	s.GET("/pds/:id/cases", can(identity.PermCasesRead), h.Cases.ListByPD)
	s.PUT("/pds/:id", can(identity.PermPDsWrite), h.PDs.Update)
	s.POST("/pds/:id/suspend", can(identity.PermPDsWrite), h.PDs.Suspend)
	s.POST("/pds/:id/reactivate", can(identity.PermPDsWrite), h.PDs.Reactivate)
	s.POST("/pds/:id/offboard", can(identity.PermPDsWrite), h.PDs.Offboard)
	s.POST("/pds/:id/reset-password", can(identity.PermPDsWrite), h.PDs.ResetPassword)

	// Applications
	s.GET("/applications", can(identity.PermPDsRead), h.Applications.List)
	s.GET("/applications/:id", can(identity.PermPDsRead), h.Applications.Review)
	s.POST("/applications/:id/approve", can(identity.PermApplicationsReview), h.Applications.Approve)
	s.POST("/applications/:id/reject", can(identity.PermApplicationsReview), h.Applications.Reject)

	// Channels and providers
	s.GET("/channels", can(identity.PermChannelsRead), h.Channels.ListChannels)
	s.POST("/channels", can(identity.PermChannelsWrite), h.Channels.CreateChannel)
	s.PUT("/channels/:id", can(identity.PermChannelsWrite), h.Channels.UpdateChannel)
	s.POST("/channels/:id/activate", can(identity.PermChannelsWrite), h.Channels.ActivateChannel)
	s.POST("/channels/:id/deactivate", can(identity.PermChannelsWrite), h.Channels.DeactivateChannel)
	s.GET("/providers", can(identity.PermChannelsRead), h.Channels.ListProviders)
	s.POST("/providers", can(identity.PermChannelsWrite), h.Channels.CreateProvider)
	s.PUT("/providers/:id", can(identity.PermChannelsWrite), h.Channels.UpdateProvider)
	s.POST("/providers/:id/activate", can(identity.PermChannelsWrite), h.Channels.ActivateProvider)
	s.POST("/providers/:id/deactivate", can(identity.PermChannelsWrite), h.Channels.DeactivateProvider)

	// Earnings
	s.GET("/earnings", can(identity.PermEarningsRead), h.Earnings.List)
	s.GET("/earnings/summary", can(identity.PermEarningsRead), h.Earnings.Summary)
	s.GET("/earnings/export", can(identity.PermEarningsExport), h.Earnings.Export)
	s.POST("/earnings/payouts", can(identity.PermEarningsWrite), h.Earnings.Payout)
	s.POST("/earnings/adjustments", can(identity.PermEarningsWrite), h.Earnings.Adjust)
	s.POST("/earnings/:id/approve", can(identity.PermEarningsWrite), h.Earnings.Approve)
	s.POST("/earnings/:id/void", can(identity.PermEarningsWrite), h.Earnings.Void)

	// Audit
	s.GET("/audit-logs", can(identity.PermAuditRead), h.Audit.List)
	s.GET("/audit-logs/export", can(identity.PermAuditExport), h.Audit.Export)

	// Staff accounts
	s.GET("/users", can(identity.PermUsersManage), h.Users.List)
	s.POST("/users", can(identity.PermUsersManage), h.Users.Create)
	s.GET("/users/:id", can(identity.PermUsersManage), h.Users.Get)
	s.PUT("/users/:id/role", can(identity.PermUsersManage), h.Users.ChangeRole)
	s.POST("/users/:id/disable", can(identity.PermUsersManage), h.Users.Disable)
	s.POST("/users/:id/enable", can(identity.PermUsersManage), h.Users.Enable)
	s.POST("/users/:id/reset-password", can(identity.PermUsersManage), h.Users.ResetPassword)

	// Outbox operations
	s.GET("/outbox/stats", can(identity.PermAuditRead), h.Outbox.Stats)
	s.GET("/outbox/dead", can(identity.PermAuditRead), h.Outbox.DeadLetters)
	s.POST("/outbox/dead/retry", can(identity.PermUsersManage), h.Outbox.RetryAllDead)
	s.POST("/outbox/dead/:id/retry", can(identity.PermUsersManage), h.Outbox.RetryDead)

	return admin
}

// PDRoutes builds the /pd surface: the public application wizard and the
// signed-in portal
func PDRoutes(h Handlers, g Guards) *DomainGroup {
	pd := NewDomainGroup("pd", "/pd")

	pd.POST("/application", h.Applications.Start)
	pd.GET("/application/:id", h.Applications.Get)
	pd.PUT("/application/:id/steps/:step", h.Applications.SaveStep)
	pd.POST("/application/:id/documents", h.Applications.RequestDocumentUpload)
	pd.POST("/application/:id/submit", h.Applications.Submit)
	pd.POST("/application/:id/withdraw", h.Applications.Withdraw)

	pd.POST("/auth/login", limited(g.LoginLimit, h.PDAuth.Login)...)

	s := pd.Group("pd-session", "", g.PDSession, can(identity.PermPDPortal))
	s.POST("/auth/logout", h.PDAuth.Logout)
	s.POST("/auth/refresh", h.PDAuth.Refresh)
	s.GET("/me", h.PDAuth.Me)
	s.PUT("/me/password", h.PDAuth.ChangePassword)

	s.GET("/cases", h.Portal.ListCases)
	s.GET("/cases/:id", h.Portal.GetCase)
	s.PATCH("/cases/:id/status", h.Portal.ChangeStatus)
	s.POST("/cases/:id/contacts", h.Portal.LogContact)
	s.GET("/pool", h.Portal.ListPool)
	s.POST("/pool/:caseId/claim", h.Portal.Claim)
	s.GET("/earnings", h.Portal.ListEarnings)
	s.GET("/earnings/summary", h.Portal.EarningsSummary)

	return pd
}

// IntakeRoutes builds the public /intake surface
func IntakeRoutes(h Handlers, g Guards) *DomainGroup {
	intake := NewDomainGroup("intake", "/intake")
	intake.POST("", h.Intake.Submit)
	intake.GET("/track/:code", limited(g.TrackLimit, h.Intake.Track)...)
	return intake
}
