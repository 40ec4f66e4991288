package handlers

import (
	"fmt"
	"strconv"
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/db/models"
)

// Query parameter names
const (
	QueryStatus           = "status"
	QueryFrom             = "from"
	QueryTo               = "to"
	QuerySynced           = "synced"
	QueryTemplateID       = "template_id"
	QueryIncludeInactive  = "include_inactive"
	QueryIncludeCancelled = "include_cancelled"
	QueryMinDaysAhead     = "min_days_ahead"
	QueryUnsync           = "unsync"
)

// parseInstanceQuery reads the instance filters: a comma separated status
// list, an inclusive from/to date range, the synced flag and paging
func parseInstanceQuery(c *fiber.Ctx) (models.InstanceQuery, error) {
	var q models.InstanceQuery

	limit, offset, ok := pageParams(c)
	if !ok {
		return q, fmt.Errorf("%s", ErrMsgNegativePaging)
	}
	q.Limit = limit
	q.Offset = offset
	q.TemplateID = c.Query(QueryTemplateID)

	if raw := c.Query(QueryStatus); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status, err := models.ParseInstanceStatus(strings.TrimSpace(s))
			if err != nil {
				return q, err
			}
			q.Statuses = append(q.Statuses, status)
		}
	}

	for _, d := range []struct {
		key string
		dst *string
	}{
		{QueryFrom, &q.DateFrom},
		{QueryTo, &q.DateTo},
	} {
		v := c.Query(d.key)
		if v == "" {
			continue
		}
		if err := models.ValidateDate(v); err != nil {
			return q, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}

	if raw := c.Query(QuerySynced); raw != "" {
		synced, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("%s: %q", ErrMsgInvalidBool, raw)
		}
		q.Synced = &synced
	}
	return q, nil
}
