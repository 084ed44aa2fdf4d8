package http

import (
	"strconv"
	"strings"

	"easgateway/core/port/in"
	"easgateway/pkg/wbxml"
)

// walker drives a wbxml.Decoder with callback hooks, so every command's
// decode function only needs to describe what to do with the tags it
// cares about rather than re-deriving the pull-parser loop. tagStack only
// ever holds tags the decoder itself tracks an END for (HasContent==true),
// matching the decoder's own open-tag bookkeeping.
func walk(body []byte, onStart func(tag string), onText func(top, text string), onEnd func(tag string)) error {
	dec, err := wbxml.NewDecoder(body)
	if err != nil {
		return err
	}
	var tagStack []string
	for {
		ev, err := dec.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case wbxml.EventEOF:
			return nil
		case wbxml.EventStartTag:
			if onStart != nil {
				onStart(ev.Tag)
			}
			if ev.HasContent {
				tagStack = append(tagStack, ev.Tag)
			}
		case wbxml.EventText:
			if len(tagStack) > 0 && onText != nil {
				onText(tagStack[len(tagStack)-1], ev.Text)
			}
		case wbxml.EventEndTag:
			if len(tagStack) == 0 {
				continue
			}
			top := tagStack[len(tagStack)-1]
			tagStack = tagStack[:len(tagStack)-1]
			if onEnd != nil {
				onEnd(top)
			}
		}
	}
}

func decodeProvisionRequest(body []byte) (in.ProvisionRequest, error) {
	var req in.ProvisionRequest
	err := walk(body, nil, func(top, text string) {
		if top == "Provision:PolicyKey" {
			req.RequestedPolicyKey = text
		}
	}, nil)
	return req, err
}

func decodeFolderSyncRequest(body []byte) (in.FolderSyncRequest, error) {
	var req in.FolderSyncRequest
	err := walk(body, nil, func(top, text string) {
		if top == "FolderHierarchy:SyncKey" {
			req.SyncKey = text
		}
	}, nil)
	return req, err
}

func decodeSyncRequest(body []byte) (in.SyncRequest, error) {
	var req in.SyncRequest
	var cur *in.SyncCollectionRequest
	var pref *in.BodyPreference

	err := walk(body,
		func(tag string) {
			switch tag {
			case "AirSync:Collection":
				c := in.SyncCollectionRequest{WindowSize: -1}
				cur = &c
			case "AirSync:GetChanges":
				if cur != nil {
					cur.GetChanges = true
				}
			case "AirSyncBase:BodyPreference":
				pref = &in.BodyPreference{}
			}
		},
		func(top, text string) {
			switch top {
			case "AirSync:SyncKey":
				if cur != nil {
					cur.SyncKey = text
				}
			case "AirSync:CollectionId":
				if cur != nil {
					cur.CollectionID = text
				}
			case "AirSync:WindowSize":
				if cur != nil {
					if n, err := strconv.Atoi(text); err == nil {
						cur.WindowSize = n
					}
				}
			case "AirSyncBase:Type":
				if pref != nil {
					if n, err := strconv.Atoi(text); err == nil {
						pref.Type = n
					}
				}
			case "AirSyncBase:TruncationSize":
				if pref != nil {
					if n, err := strconv.Atoi(text); err == nil {
						pref.TruncationSize = n
					}
				}
			}
		},
		func(tag string) {
			switch tag {
			case "AirSyncBase:BodyPreference":
				if cur != nil && pref != nil {
					cur.BodyPreferences = append(cur.BodyPreferences, *pref)
				}
				pref = nil
			case "AirSync:Collection":
				if cur != nil {
					req.Collections = append(req.Collections, *cur)
				}
				cur = nil
			}
		},
	)
	return req, err
}

func decodeGetItemEstimateRequest(body []byte) (in.GetItemEstimateRequest, error) {
	var req in.GetItemEstimateRequest
	var cur *in.GetItemEstimateCollectionRequest

	err := walk(body,
		func(tag string) {
			if tag == "GetItemEstimate:Collection" {
				c := in.GetItemEstimateCollectionRequest{}
				cur = &c
			}
		},
		func(top, text string) {
			if cur == nil {
				return
			}
			switch top {
			case "GetItemEstimate:CollectionId":
				cur.CollectionID = text
			case "AirSync:SyncKey", "GetItemEstimate:SyncKey":
				cur.SyncKey = text
			}
		},
		func(tag string) {
			if tag == "GetItemEstimate:Collection" && cur != nil {
				req.Collections = append(req.Collections, *cur)
				cur = nil
			}
		},
	)
	return req, err
}

func decodePingRequest(body []byte) (in.PingRequest, error) {
	var req in.PingRequest
	err := walk(body, nil, func(top, text string) {
		switch top {
		case "Ping:HeartbeatInterval":
			if n, err := strconv.Atoi(text); err == nil {
				req.HeartbeatInterval = n
			}
		case "Ping:Id":
			req.CollectionIDs = append(req.CollectionIDs, text)
		}
	}, nil)
	return req, err
}

func decodeItemOperationsFetchRequest(body []byte) (in.ItemOperationsFetchRequest, error) {
	var req in.ItemOperationsFetchRequest
	var pref *in.BodyPreference

	err := walk(body,
		func(tag string) {
			if tag == "AirSyncBase:BodyPreference" {
				pref = &in.BodyPreference{}
			}
		},
		func(top, text string) {
			switch top {
			case "AirSync:CollectionId":
				req.CollectionID = text
			case "AirSync:ServerId":
				collectionID, itemID := splitServerID(text)
				if req.CollectionID == "" {
					req.CollectionID = collectionID
				}
				req.ItemID = itemID
			case "AirSyncBase:Type":
				if pref != nil {
					if n, err := strconv.Atoi(text); err == nil {
						pref.Type = n
					}
				}
			case "AirSyncBase:TruncationSize":
				if pref != nil {
					if n, err := strconv.Atoi(text); err == nil {
						pref.TruncationSize = n
					}
				}
			}
		},
		func(tag string) {
			if tag == "AirSyncBase:BodyPreference" && pref != nil {
				req.BodyPreferences = append(req.BodyPreferences, *pref)
				pref = nil
			}
		},
	)
	return req, err
}

// splitServerID reverses the "<collectionID>:<itemID>" shape eas.RenderAdd
// emits as AirSync:ServerId.
func splitServerID(serverID string) (collectionID string, itemID int64) {
	idx := strings.LastIndexByte(serverID, ':')
	if idx < 0 {
		return "", 0
	}
	id, err := strconv.ParseInt(serverID[idx+1:], 10, 64)
	if err != nil {
		return serverID[:idx], 0
	}
	return serverID[:idx], id
}
