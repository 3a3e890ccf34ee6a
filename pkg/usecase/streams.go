package usecase

import (
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/singer"
)

// The admin API caps $top at 5000. Shouldn't need to be changed unless a
// smaller page is required.
const defaultPageSize = 5000

// Streams returns the stream registry in sync order. The DataSources
// endpoint is intentionally absent: its extraction is not ready yet.
func Streams() []*model.Stream {
	return []*model.Stream{
		{
			Name:           "ActivityEvents",
			Path:           "/admin/activityevents",
			PrimaryKeys:    []string{"Id"},
			ReplicationKey: "CreationTime",
			Pagination:     model.PaginateActivityWindow,
			Schema:         activityEventsSchema(),
		},
		{
			Name:        "Apps",
			Path:        "/admin/apps",
			PrimaryKeys: []string{"id"},
			Pagination:  model.PaginateSkipTop,
			PageSize:    defaultPageSize,
			Schema:      appsSchema(),
		},
		{
			Name:        "Groups",
			Path:        "/admin/groups",
			PrimaryKeys: []string{"id"},
			Pagination:  model.PaginateSkipTop,
			PageSize:    defaultPageSize,
			Schema:      groupsSchema(),
		},
		{
			Name:        "Reports",
			Path:        "/admin/reports",
			PrimaryKeys: []string{"id"},
			Pagination:  model.PaginateSkipTop,
			PageSize:    defaultPageSize,
			Schema:      reportsSchema(),
		},
		{
			Name:        "Refreshables",
			Path:        "/admin/capacities/refreshables",
			PrimaryKeys: []string{"id"},
			Pagination:  model.PaginateSkipTop,
			PageSize:    defaultPageSize,
			Schema:      refreshablesSchema(),
		},
		{
			Name:        "Datasets",
			Path:        "/admin/datasets",
			PrimaryKeys: []string{"id"},
			Pagination:  model.PaginateSkipTop,
			PageSize:    defaultPageSize,
			Schema:      datasetsSchema(),
		},
	}
}

func activityEventsSchema() map[string]any {
	return singer.NewSchema(
		singer.RequiredProp("Id", singer.String()),
		singer.Prop("RecordType", singer.Integer()),
		singer.RequiredProp("CreationTime", singer.DateTime()),
		singer.Prop("Operation", singer.String()),
		singer.Prop("OrganizationId", singer.String()),
		singer.Prop("UserType", singer.Integer()),
		singer.Prop("UserKey", singer.String()),
		singer.Prop("Workload", singer.String()),
		singer.Prop("UserId", singer.String()),
		singer.Prop("ClientIP", singer.String()),
		singer.Prop("UserAgent", singer.String()),
		singer.Prop("Activity", singer.String()),
		singer.Prop("ItemName", singer.String()),
		singer.Prop("CapacityId", singer.String()),
		singer.Prop("CapacityName", singer.String()),
		singer.Prop("WorkspaceId", singer.String()),
		singer.Prop("WorkSpaceName", singer.String()),
		singer.Prop("DatasetId", singer.String()),
		singer.Prop("DatasetName", singer.String()),
		singer.Prop("ReportId", singer.String()),
		singer.Prop("ReportName", singer.String()),
		singer.Prop("ObjectId", singer.String()),
		singer.Prop("IsSuccess", singer.Boolean()),
		singer.Prop("ReportType", singer.String()),
		singer.Prop("RequestId", singer.String()),
		singer.Prop("ActivityId", singer.String()),
		singer.Prop("AppName", singer.String()),
		singer.Prop("AppReportId", singer.String()),
		singer.Prop("DistributionMethod", singer.String()),
		singer.Prop("ConsumptionMethod", singer.String()),
		singer.Prop("DataflowId", singer.String()),
		singer.Prop("DataflowName", singer.String()),
		singer.Prop("DataflowType", singer.String()),
		singer.Prop("DataflowAccessTokenRequestParameters", singer.Object(
			singer.Prop("tokenLifetimeInMinutes", singer.Integer()),
			singer.Prop("permissions", singer.Integer()),
			singer.Prop("entityName", singer.String()),
			singer.Prop("partitionUri", singer.String()),
		)),
		singer.Prop("CustomVisualAccessTokenResourceId", singer.String()),
		singer.Prop("CustomVisualAccessTokenSiteUri", singer.String()),
		singer.Prop("ExportedArtifactInfo", singer.Object(
			singer.Prop("ExportType", singer.String()),
			singer.Prop("ArtifactType", singer.String()),
			singer.Prop("ArtifactId", singer.Integer()),
		)),
		singer.Prop("DataConnectivityMode", singer.String()),
		singer.Prop("LastRefreshTime", singer.String()),
		singer.Prop("Schedules", singer.Object(
			singer.Prop("RefreshFrequency", singer.String()),
			singer.Prop("TimeZone", singer.String()),
			singer.Prop("Days", singer.Array(singer.String())),
			singer.Prop("Time", singer.Array(singer.String())),
		)),
		singer.Prop("ImportId", singer.String()),
		singer.Prop("ImportType", singer.String()),
		singer.Prop("ImportSource", singer.String()),
		singer.Prop("ImportDisplayName", singer.String()),
		singer.Prop("RefreshType", singer.String()),
		singer.Prop("DashboardId", singer.String()),
		singer.Prop("DashboardName", singer.String()),
		singer.Prop("Datasets", singer.Array(singer.Object(
			singer.Prop("DatasetId", singer.String()),
			singer.Prop("DatasetName", singer.String()),
		))),
		singer.Prop("ModelsSnapshots", singer.Array(singer.Integer())),
		singer.Prop("OrgAppPermission", singer.Object(
			singer.Prop("recipients", singer.String()),
			singer.Prop("permissions", singer.String()),
		)),
		singer.Prop("GenerateScreenshotInformation", singer.Object(
			singer.Prop("ExportType", singer.Integer()),
			singer.Prop("ScreenshotEngineType", singer.Integer()),
			singer.Prop("ExportFormat", singer.String()),
			singer.Prop("ExportUrl", singer.String()),
		)),
		singer.Prop("SharingAction", singer.String()),
		singer.Prop("SharingInformation", singer.Array(singer.Object(
			singer.Prop("RecipientEmail", singer.String()),
			singer.Prop("ResharePermission", singer.String()),
		))),
		singer.Prop("ArtifactId", singer.String()),
		singer.Prop("ArtifactName", singer.String()),
		singer.Prop("FolderObjectId", singer.String()),
		singer.Prop("FolderDisplayName", singer.String()),
		singer.Prop("ExportEventStartDateTimeParameter", singer.String()),
		singer.Prop("ExportEventEndDateTimeParameter", singer.String()),
		singer.Prop("ExportEventActivityTypeParameter", singer.String()),
	)
}

// The metadata endpoints return loosely-typed rows whose fields vary by
// tenant, so their schemas stay open with additionalProperties.
func openSchema(props ...singer.Property) map[string]any {
	schema := singer.NewSchema(props...)
	schema["additionalProperties"] = true
	return schema
}

func appsSchema() map[string]any {
	return openSchema(
		singer.RequiredProp("id", singer.String()),
		singer.Prop("name", singer.String()),
		singer.Prop("description", singer.String()),
		singer.Prop("publishedBy", singer.String()),
		singer.Prop("lastUpdate", singer.DateTime()),
	)
}

func groupsSchema() map[string]any {
	return openSchema(
		singer.RequiredProp("id", singer.String()),
		singer.Prop("name", singer.String()),
		singer.Prop("type", singer.String()),
		singer.Prop("state", singer.String()),
		singer.Prop("isReadOnly", singer.Boolean()),
		singer.Prop("isOnDedicatedCapacity", singer.Boolean()),
		singer.Prop("capacityId", singer.String()),
	)
}

func reportsSchema() map[string]any {
	return openSchema(
		singer.RequiredProp("id", singer.String()),
		singer.Prop("name", singer.String()),
		singer.Prop("reportType", singer.String()),
		singer.Prop("webUrl", singer.String()),
		singer.Prop("embedUrl", singer.String()),
		singer.Prop("datasetId", singer.String()),
		singer.Prop("workspaceId", singer.String()),
		singer.Prop("createdDateTime", singer.DateTime()),
		singer.Prop("modifiedDateTime", singer.DateTime()),
	)
}

func refreshablesSchema() map[string]any {
	return openSchema(
		singer.RequiredProp("id", singer.String()),
		singer.Prop("name", singer.String()),
		singer.Prop("kind", singer.String()),
		singer.Prop("startTime", singer.DateTime()),
		singer.Prop("endTime", singer.DateTime()),
		singer.Prop("refreshCount", singer.Integer()),
		singer.Prop("refreshFailures", singer.Integer()),
		singer.Prop("averageDuration", singer.Number()),
		singer.Prop("medianDuration", singer.Number()),
		singer.Prop("refreshesPerDay", singer.Integer()),
	)
}

func datasetsSchema() map[string]any {
	return openSchema(
		singer.RequiredProp("id", singer.String()),
		singer.Prop("name", singer.String()),
		singer.Prop("configuredBy", singer.String()),
		singer.Prop("isRefreshable", singer.Boolean()),
		singer.Prop("isEffectiveIdentityRequired", singer.Boolean()),
		singer.Prop("isEffectiveIdentityRolesRequired", singer.Boolean()),
		singer.Prop("isOnPremGatewayRequired", singer.Boolean()),
		singer.Prop("workspaceId", singer.String()),
		singer.Prop("createdDate", singer.DateTime()),
	)
}
