// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/datatypes"
)

// HealthCheck answers GET /health.
//
// The dataset is loaded at startup and the service refuses to start
// without it, so a responding process is a healthy one. The row count
// and backend are included for operator sanity checks.
func HealthCheck(ds *dataset.Dataset, llmBackend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:     "ok",
			Service:    "lifeboat",
			Rows:       ds.RowCount(),
			LLMBackend: llmBackend,
		})
	}
}
