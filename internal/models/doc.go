// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

/*
Package models defines the HTTP wire types of the Postwise API.

Every endpoint answers with an APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-03-04T12:00:00Z", "query_time_ms": 2}
	}

Request types carry validator/v10 tags checked by the validation package.
Prediction payloads (OptimalTimeResponse, TimeEngagementResponse,
ModelStatusResponse) are built by the api package from engine results.
*/
package models
