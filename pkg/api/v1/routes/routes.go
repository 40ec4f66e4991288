// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/pkg/api/v1/handlers"
)

/*

Routes are registered smallest scope first. Within a group the order is GET,
POST, PUT, DELETE, and fixed segments (i.e. /bulk/status) go before param
segments (i.e. /:id) so fiber does not read the segment as an id.

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Template routes
	ListTemplates        = "ListTemplates"
	GetTemplate          = "GetTemplate"
	GetTemplateInstances = "GetTemplateInstances"
	GetTemplateNext      = "GetTemplateNext"
	GetTemplateStats     = "GetTemplateStats"
	CreateTemplate       = "CreateTemplate"
	CancelTemplate       = "CancelTemplate"
	GenerateTemplate     = "GenerateTemplate"
	UpdateTemplate       = "UpdateTemplate"
	DeactivateTemplate   = "DeactivateTemplate"

	// Instance routes
	ListInstances        = "ListInstances"
	GetInstance          = "GetInstance"
	BulkDeleteInstances  = "BulkDeleteInstances"
	BulkUpdateStatus     = "BulkUpdateStatus"
	SyncInstance         = "SyncInstance"
	UpdateInstanceStatus = "UpdateInstanceStatus"
	DeleteInstance       = "DeleteInstance"
	UnsyncInstance       = "UnsyncInstance"

	// Sync routes
	SyncInstances = "SyncInstances"

	// Calendar routes
	CalendarFeed       = "CalendarFeed"
	CalendarStatus     = "CalendarStatus"
	CalendarTest       = "CalendarTest"
	CalendarConnect    = "CalendarConnect"
	CalendarDisconnect = "CalendarDisconnect"
	CalendarSettings   = "CalendarSettings"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
func RegisterRoutes(
	app *fiber.App,
	healthHandler *handlers.HealthHandler,
	templateHandler *handlers.TemplateHandler,
	instanceHandler *handlers.InstanceHandler,
	syncHandler *handlers.SyncHandler,
	calendarHandler *handlers.CalendarHandler,
) {
	v1 := app.Group(APIv1Prefix)

	v1.Get("/health", healthHandler.Health).Name(HealthCheck)

	// Templates
	templates := v1.Group("/templates")
	templates.Get("/", templateHandler.ListTemplates).Name(ListTemplates)
	templates.Get("/:id", templateHandler.GetTemplate).Name(GetTemplate)
	templates.Get("/:id/instances", templateHandler.GetTemplateInstances).Name(GetTemplateInstances)
	templates.Get("/:id/next", templateHandler.GetNextOccurrence).Name(GetTemplateNext)
	templates.Get("/:id/stats", templateHandler.GetTemplateStats).Name(GetTemplateStats)
	templates.Post("/", templateHandler.CreateTemplate).Name(CreateTemplate)
	templates.Post("/:id/cancel", templateHandler.CancelTemplate).Name(CancelTemplate)
	templates.Post("/:id/generate", templateHandler.GenerateInstances).Name(GenerateTemplate)
	templates.Put("/:id", templateHandler.UpdateTemplate).Name(UpdateTemplate)
	templates.Delete("/:id", templateHandler.DeactivateTemplate).Name(DeactivateTemplate)

	// Instances
	instances := v1.Group("/instances")
	instances.Get("/", instanceHandler.ListInstances).Name(ListInstances)
	instances.Get("/:id", instanceHandler.GetInstance).Name(GetInstance)
	instances.Post("/bulk/delete", instanceHandler.BulkDeleteInstances).Name(BulkDeleteInstances)
	instances.Post("/bulk/status", instanceHandler.BulkUpdateStatus).Name(BulkUpdateStatus)
	instances.Post("/:id/sync", syncHandler.SyncInstance).Name(SyncInstance)
	instances.Put("/:id/status", instanceHandler.UpdateStatus).Name(UpdateInstanceStatus)
	instances.Delete("/:id", instanceHandler.DeleteInstance).Name(DeleteInstance)
	instances.Delete("/:id/sync", syncHandler.UnsyncInstance).Name(UnsyncInstance)

	// Bulk sync
	v1.Post("/sync", syncHandler.SyncInstances).Name(SyncInstances)

	// Calendar
	cal := v1.Group("/calendar")
	cal.Get("/feed.ics", calendarHandler.Feed).Name(CalendarFeed)
	cal.Get("/status", calendarHandler.Status).Name(CalendarStatus)
	cal.Get("/test", calendarHandler.TestConnection).Name(CalendarTest)
	cal.Post("/connect", calendarHandler.Connect).Name(CalendarConnect)
	cal.Post("/disconnect", calendarHandler.Disconnect).Name(CalendarDisconnect)
	cal.Put("/settings", calendarHandler.UpdateSettings).Name(CalendarSettings)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCacheMu.Lock()
		defer routeCacheMu.Unlock()

		routeCache = make(map[string]string)

		app := fiber.New()
		RegisterRoutes(app,
			&handlers.HealthHandler{},
			&handlers.TemplateHandler{},
			&handlers.InstanceHandler{},
			&handlers.SyncHandler{},
			&handlers.CalendarHandler{},
		)

		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// Template route helpers

// ListTemplatesURL returns the URL for listing templates
func ListTemplatesURL(queryParams url.Values) string {
	return BuildURL(ListTemplates, nil, queryParams)
}

// GetTemplateURL returns the URL of a template
func GetTemplateURL(id string) string {
	return BuildURL(GetTemplate, idParam(id), nil)
}

// GetTemplateInstancesURL returns the URL for listing the instances of a template
func GetTemplateInstancesURL(id string, queryParams url.Values) string {
	return BuildURL(GetTemplateInstances, idParam(id), queryParams)
}

// GetTemplateNextURL returns the URL of the next occurrence of a template
func GetTemplateNextURL(id string) string {
	return BuildURL(GetTemplateNext, idParam(id), nil)
}

// GetTemplateStatsURL returns the URL of the status counts of a template
func GetTemplateStatsURL(id string) string {
	return BuildURL(GetTemplateStats, idParam(id), nil)
}

// CreateTemplateURL returns the URL for creating a template
func CreateTemplateURL() string {
	return BuildURL(CreateTemplate, nil, nil)
}

// CancelTemplateURL returns the URL for cancelling the future instances of a template
func CancelTemplateURL(id string, queryParams url.Values) string {
	return BuildURL(CancelTemplate, idParam(id), queryParams)
}

// GenerateTemplateURL returns the URL for generating the instances of a template
func GenerateTemplateURL(id string, queryParams url.Values) string {
	return BuildURL(GenerateTemplate, idParam(id), queryParams)
}

// UpdateTemplateURL returns the URL for updating a template
func UpdateTemplateURL(id string) string {
	return BuildURL(UpdateTemplate, idParam(id), nil)
}

// DeactivateTemplateURL returns the URL for deactivating a template
func DeactivateTemplateURL(id string, queryParams url.Values) string {
	return BuildURL(DeactivateTemplate, idParam(id), queryParams)
}

// Instance route helpers

// ListInstancesURL returns the URL for querying instances
func ListInstancesURL(queryParams url.Values) string {
	return BuildURL(ListInstances, nil, queryParams)
}

// GetInstanceURL returns the URL of an instance
func GetInstanceURL(id string) string {
	return BuildURL(GetInstance, idParam(id), nil)
}

// BulkDeleteInstancesURL returns the URL for deleting instances in bulk
func BulkDeleteInstancesURL() string {
	return BuildURL(BulkDeleteInstances, nil, nil)
}

// BulkUpdateStatusURL returns the URL for changing the status of instances in bulk
func BulkUpdateStatusURL() string {
	return BuildURL(BulkUpdateStatus, nil, nil)
}

// SyncInstanceURL returns the URL for syncing one instance
func SyncInstanceURL(id string) string {
	return BuildURL(SyncInstance, idParam(id), nil)
}

// UpdateInstanceStatusURL returns the URL for changing the status of an instance
func UpdateInstanceStatusURL(id string) string {
	return BuildURL(UpdateInstanceStatus, idParam(id), nil)
}

// DeleteInstanceURL returns the URL for deleting an instance
func DeleteInstanceURL(id string) string {
	return BuildURL(DeleteInstance, idParam(id), nil)
}

// UnsyncInstanceURL returns the URL for removing the calendar event of an instance
func UnsyncInstanceURL(id string) string {
	return BuildURL(UnsyncInstance, idParam(id), nil)
}

// SyncInstancesURL returns the URL of the bulk sync
func SyncInstancesURL() string {
	return BuildURL(SyncInstances, nil, nil)
}

// Calendar route helpers

// CalendarFeedURL returns the URL of the ICS feed
func CalendarFeedURL(queryParams url.Values) string {
	return BuildURL(CalendarFeed, nil, queryParams)
}

// CalendarStatusURL returns the URL of the calendar connection state
func CalendarStatusURL() string {
	return BuildURL(CalendarStatus, nil, nil)
}

// CalendarTestURL returns the URL of the calendar connection test
func CalendarTestURL() string {
	return BuildURL(CalendarTest, nil, nil)
}

// CalendarConnectURL returns the URL for connecting the calendar
func CalendarConnectURL() string {
	return BuildURL(CalendarConnect, nil, nil)
}

// CalendarDisconnectURL returns the URL for disconnecting the calendar
func CalendarDisconnectURL() string {
	return BuildURL(CalendarDisconnect, nil, nil)
}

// CalendarSettingsURL returns the URL of the calendar settings
func CalendarSettingsURL() string {
	return BuildURL(CalendarSettings, nil, nil)
}
