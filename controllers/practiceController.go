package controllers

import (
	"github.com/gin-gonic/gin"

	"PracticeManager/handlers"
	"PracticeManager/middlewares"
	"PracticeManager/models"
	"PracticeManager/services"
)

// PracticeHandlers groups the handlers served under /orgs/:org_id.
type PracticeHandlers struct {
	Patients     *handlers.PatientHandler
	Files        *handlers.FileHandler
	Notes        *handlers.NoteHandler
	Appointments *handlers.AppointmentHandler
	Settings     *handlers.SettingsHandler
	Users        *handlers.UserHandler
}

// SetupPracticeRoutes registers the organization scoped API. Every route
// needs a session whose practice matches :org_id.
func SetupPracticeRoutes(router *gin.Engine, auth services.AuthService, h PracticeHandlers) {
	org := router.Group("/orgs/:org_id", middlewares.TokenAuthMiddleware(auth), middlewares.OrgAccess())

	view := middlewares.RequirePermission(models.PermViewPatients)
	edit := middlewares.RequirePermission(models.PermEditPatients)
	files := middlewares.RequirePermission(models.PermManageFiles)
	notes := middlewares.RequirePermission(models.PermManageNotes)
	calendar := middlewares.RequirePermission(models.PermManageAppointments)
	settings := middlewares.RequirePermission(models.PermManageSettings)
	users := middlewares.RequirePermission(models.PermManageUsers)

	org.GET("/patients", view, h.Patients.GetAllPatients)
	org.POST("/patients", edit, h.Patients.CreatePatient)
	org.GET("/patients/:patient_id", view, h.Patients.GetPatientByID)
	org.PUT("/patients/:patient_id", edit, h.Patients.UpdatePatient)
	org.DELETE("/patients/:patient_id", edit, h.Patients.DeletePatient)
	org.GET("/patients/:patient_id/files", view, h.Patients.GetPatientFiles)

	org.GET("/files", view, h.Files.GetAllFiles)
	org.POST("/files", files, h.Files.CreateFile)
	org.GET("/files/:file_id", view, h.Files.GetFileData)
	org.PUT("/files/:file_id", files, h.Files.SaveFileData)
	org.DELETE("/files/:file_id", files, h.Files.DeleteFile)

	org.GET("/files/:file_id/notes", view, h.Notes.GetNotes)
	org.POST("/files/:file_id/notes", notes, h.Notes.CreateNote)
	org.PUT("/files/:file_id/notes/:note_id", notes, h.Notes.UpdateNote)
	org.DELETE("/files/:file_id/notes/:note_id", notes, h.Notes.DeleteNote)
	org.GET("/files/:file_id/notes/:note_id/attachments/:attachment_id", view, h.Notes.GetAttachmentURL)
	org.GET("/files/:file_id/notes/:note_id/attachments/:attachment_id/content", view, h.Notes.DownloadAttachment)
	org.DELETE("/files/:file_id/notes/:note_id/attachments/:attachment_id", notes, h.Notes.DeleteAttachment)

	org.GET("/appointments", calendar, h.Appointments.GetAllAppointments)
	org.POST("/appointments", calendar, h.Appointments.CreateAppointment)
	org.GET("/appointments/:appointment_id", calendar, h.Appointments.GetAppointmentByID)
	org.PUT("/appointments/:appointment_id", calendar, h.Appointments.UpdateAppointment)
	org.DELETE("/appointments/:appointment_id", calendar, h.Appointments.DeleteAppointment)

	org.GET("/settings", h.Settings.GetSettings)
	org.PUT("/settings", settings, h.Settings.UpdateSettings)
	org.POST("/settings/logo", settings, h.Settings.UploadLogo)
	org.GET("/settings/logo", h.Settings.GetLogoURL)
	org.POST("/settings/consent", settings, h.Settings.UploadConsent)
	org.GET("/settings/consent", h.Settings.GetConsentURL)

	org.GET("/roles", h.Users.GetRoles)
	org.GET("/users", users, h.Users.GetAllUsers)
	org.POST("/users", users, h.Users.CreateUser)
	org.GET("/users/:user_id", users, h.Users.GetUser)
	org.PUT("/users/:user_id", users, h.Users.UpdateUser)
	org.DELETE("/users/:user_id", users, h.Users.DeleteUser)
	org.GET("/users/:user_id/permissions", users, h.Users.GetUserPermissions)
}
