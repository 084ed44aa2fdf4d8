package http

import (
	"fmt"

	"easgateway/core/eas"
	"easgateway/core/port/in"
	"easgateway/pkg/wbxml"
)

// encodeProvisionResponse builds the single-step Provision response body
// (spec.md §4.5.1): a status and the policy key, both carried in-band; the
// dispatcher mirrors the key into the X-MS-PolicyKey header separately.
func encodeProvisionResponse(res in.ProvisionResult) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("Provision:Provision")
	enc.TextTag("Provision:Status", res.Status)
	enc.Start("Provision:Policies")
	enc.Start("Provision:Policy")
	enc.TextTag("Provision:PolicyType", "MS-EAS-Provisioning-WBXML")
	enc.TextTag("Provision:Status", res.Status)
	if res.PolicyKey != "" {
		enc.TextTag("Provision:PolicyKey", res.PolicyKey)
	}
	enc.Start("Provision:Data")
	enc.End()
	enc.End() // Policy
	enc.End() // Policies
	enc.End() // Provision
	return enc.Bytes()
}

// encodeFolderSyncResponse projects the folder hierarchy (spec.md §4.5.2).
// On a non-initial sync the Changes count is 0 and no Add entries are
// emitted, but the SyncKey still advances.
func encodeFolderSyncResponse(res in.FolderSyncResult, initial bool) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("FolderHierarchy:FolderSync")
	enc.TextTag("FolderHierarchy:Status", res.Status)
	enc.TextTag("FolderHierarchy:SyncKey", res.SyncKey)
	enc.Start("FolderHierarchy:Changes")
	if initial {
		enc.TextTag("FolderHierarchy:Count", fmt.Sprintf("%d", len(res.Folders)))
		for _, f := range res.Folders {
			enc.Start("FolderHierarchy:Add")
			enc.TextTag("FolderHierarchy:ServerId", f.ServerID)
			enc.TextTag("FolderHierarchy:ParentId", f.ParentID)
			enc.TextTag("FolderHierarchy:DisplayName", f.DisplayName)
			enc.TextTag("FolderHierarchy:Type", fmt.Sprintf("%d", f.Type))
			enc.End()
		}
	} else {
		enc.TextTag("FolderHierarchy:Count", "0")
	}
	enc.End() // Changes
	enc.End() // FolderSync
	return enc.Bytes()
}

// encodeSyncResponse projects the Sync result across every collection in
// the request, each wrapped in the canonical child order spec.md §4.4
// mandates: SyncKey, CollectionId, Status, Class, Commands, MoreAvailable,
// Responses.
func encodeSyncResponse(res in.SyncResult) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("AirSync:Sync")
	enc.Start("AirSync:Collections")
	for _, cr := range res.Collections {
		enc.Start("AirSync:Collection")
		enc.TextTag("AirSync:SyncKey", cr.SyncKey)
		enc.TextTag("AirSync:CollectionId", cr.CollectionID)
		enc.TextTag("AirSync:Status", cr.Status)
		enc.TextTag("AirSync:Class", "Email")
		if len(cr.Items) > 0 {
			enc.Start("AirSync:Commands")
			for _, item := range cr.Items {
				eas.RenderAdd(enc, cr.CollectionID, item)
			}
			enc.End()
		}
		if cr.MoreAvailable {
			enc.Start("AirSync:MoreAvailable")
			enc.End()
		}
		enc.End() // Collection
	}
	enc.End() // Collections
	enc.End() // Sync
	return enc.Bytes()
}

// encodeGetItemEstimateResponse projects per-collection counts (spec.md
// §4.5.4). The top-level Status is always 1; a collection with an invalid
// SyncKey carries its own Status=4 and no Estimate child.
func encodeGetItemEstimateResponse(res in.GetItemEstimateResult) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("GetItemEstimate:GetItemEstimate")
	enc.TextTag("GetItemEstimate:Status", "1")
	enc.Start("GetItemEstimate:Collections")
	for _, cr := range res.Collections {
		enc.Start("GetItemEstimate:Collection")
		enc.TextTag("GetItemEstimate:CollectionId", cr.CollectionID)
		enc.TextTag("GetItemEstimate:Status", cr.Status)
		if cr.Status == "1" {
			enc.TextTag("GetItemEstimate:Estimate", fmt.Sprintf("%d", cr.Estimate))
		}
		enc.End()
	}
	enc.End() // Collections
	enc.End() // GetItemEstimate
	return enc.Bytes()
}

// encodePingResponse projects the long-poll result (spec.md §4.5.5): a
// bare Status=1 on timeout, or Status=2 with the changed folder list.
func encodePingResponse(res in.PingResult) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("Ping:Ping")
	enc.TextTag("Ping:Status", res.Status)
	if len(res.ChangedCollections) > 0 {
		enc.Start("Ping:Folders")
		for _, id := range res.ChangedCollections {
			enc.TextTag("Ping:Folder", id)
		}
		enc.End()
	}
	enc.End()
	return enc.Bytes()
}

// encodeItemOperationsFetchResponse projects the single fetched item
// (spec.md §4.5.6), reusing the same Add/ApplicationData body rendering
// Sync uses.
func encodeItemOperationsFetchResponse(collectionID string, res in.ItemOperationsFetchResult) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("ItemOperations:ItemOperations")
	enc.TextTag("ItemOperations:Status", res.Status)
	enc.Start("ItemOperations:Response")
	enc.Start("ItemOperations:Fetch")
	enc.TextTag("ItemOperations:Status", res.Status)
	enc.Start("ItemOperations:Properties")
	eas.RenderBody(enc, res.Result.Body)
	enc.End() // Properties
	enc.End() // Fetch
	enc.End() // Response
	enc.End() // ItemOperations
	return enc.Bytes()
}

// errorStatusCollection builds a minimal single-collection Sync response
// carrying only an in-band error status (spec.md §7), for a collection where
// no item projection is possible. No handler calls it: Service.Sync reports
// store failures as errors (answered with HTTP 500/503 by writeAppError)
// and has no unknown-CollectionId (Status=8) path.
func errorStatusCollection(collectionID, status string) ([]byte, error) {
	enc := wbxml.NewEncoder()
	enc.Start("AirSync:Sync")
	enc.Start("AirSync:Collections")
	enc.Start("AirSync:Collection")
	enc.TextTag("AirSync:CollectionId", collectionID)
	enc.TextTag("AirSync:Status", status)
	enc.End()
	enc.End()
	enc.End()
	return enc.Bytes()
}
