// Package http is the inbound HTTP adapter: a single Fiber route that
// decodes WBXML ActiveSync commands, dispatches them to core/eas.Service
// and encodes the WBXML response, following the teacher's adapter/in
// convention of keeping transport concerns out of the core.
package http

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"easgateway/core/domain"
	"easgateway/core/eas"
	"easgateway/core/port/in"
	"easgateway/core/port/out"
	"easgateway/core/strategy"
	"easgateway/pkg/apperr"
	"easgateway/pkg/logger"
	"easgateway/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// ProtocolInfo backs the headers every response and the OPTIONS probe
// carry (spec.md §6.1/§6.4).
type ProtocolInfo struct {
	Server   string
	Versions string
	Commands string
}

// Dependencies is what the router needs to serve every command: the
// command service plus the three ports the dispatcher itself owns (Basic
// Auth lookup, device provisioning gate and idempotent-resend cache
// short-circuit live here
// rather than inside core/eas, since they are HTTP framing concerns, not
// protocol-state ones).
type Dependencies struct {
	Service  *eas.Service
	Devices  out.DeviceRepository
	Auth     out.AuthRepository
	Cache    out.ResponseCache
	Protocol ProtocolInfo
}

// Register mounts the ActiveSync endpoint on app.
func Register(app *fiber.App, deps Dependencies) {
	app.Options("/Microsoft-Server-ActiveSync", func(c *fiber.Ctx) error {
		setProtocolHeaders(c, deps.Protocol)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/Microsoft-Server-ActiveSync", newHandler(deps))
}

func newHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		cmd := c.Query("Cmd")
		defer func() { metrics.RecordLatency("eas."+cmd, time.Since(start)) }()

		setProtocolHeaders(c, deps.Protocol)
		ctx := context.Background()

		principal, err := authenticate(c, ctx, deps.Auth)
		if err != nil {
			return writeAppError(c, err)
		}

		deviceID := c.Query("DeviceId")
		deviceType := c.Query("DeviceType")
		if deviceID == "" || cmd == "" {
			return writeAppError(c, apperr.New(apperr.CodeBadRequest, "DeviceId and Cmd are required", fiber.StatusBadRequest))
		}

		device, err := loadOrCreateDevice(ctx, deps.Devices, principal.ID, deviceID, deviceType)
		if err != nil {
			return writeAppError(c, err)
		}

		if cmd != "Provision" && !device.IsProvisioned() {
			c.Set("X-MS-PolicyKey", domain.UnprovisionedPolicyKey)
			return c.SendStatus(449)
		}

		rc := in.RequestContext{
			Principal:  *principal,
			Device:     *device,
			PolicyKey:  device.PolicyKey,
			UserAgent:  c.Get("User-Agent"),
			DeviceType: deviceType,
			Strategy:   strategy.Select(c.Get("User-Agent"), deviceType),
		}

		var body []byte
		if cmd == "Provision" {
			body, err = handleProvision(ctx, deps, rc, c.Body(), device)
		} else {
			body, err = dispatch(ctx, deps, rc, cmd, c.Body())
		}
		if err != nil {
			return writeAppError(c, err)
		}

		c.Set("Content-Type", "application/vnd.ms-sync.wbxml")
		c.Set("Cache-Control", "private")
		if device.PolicyKey != "" {
			c.Set("X-MS-PolicyKey", device.PolicyKey)
		}
		return c.Send(body)
	}
}

func setProtocolHeaders(c *fiber.Ctx, p ProtocolInfo) {
	c.Set("MS-Server-ActiveSync", p.Server)
	c.Set("MS-ASProtocolVersions", p.Versions)
	c.Set("MS-ASProtocolCommands", p.Commands)
}

// authenticate extracts and verifies HTTP Basic credentials (spec.md
// §4.1); it is the dispatcher's one responsibility the core itself is
// deliberately kept ignorant of (spec.md §1 excludes the external auth
// collaborator from this core's scope).
func authenticate(c *fiber.Ctx, ctx context.Context, auth out.AuthRepository) (*domain.Principal, error) {
	email, password, ok := parseBasicAuth(c.Get("Authorization"))
	if !ok {
		c.Set("WWW-Authenticate", `Basic realm="ActiveSync"`)
		return nil, apperr.Unauthorized("missing or malformed Basic credentials")
	}
	principal, err := auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// parseBasicAuth decodes an RFC 7617 "Basic <base64(user:pass)>" header.
func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	email, password, found := strings.Cut(string(decoded), ":")
	if !found || email == "" {
		return "", "", false
	}
	return email, password, true
}

// loadOrCreateDevice resolves the (principal, device) pair, registering a
// fresh unprovisioned Device on first contact (spec.md §4.5.1) and
// refreshing LastSeen otherwise.
func loadOrCreateDevice(ctx context.Context, devices out.DeviceRepository, principalID int64, deviceID, deviceType string) (*domain.Device, error) {
	device, err := devices.Get(ctx, principalID, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		device = &domain.Device{
			PrincipalID: principalID,
			DeviceID:    deviceID,
			DeviceType:  deviceType,
			State:       domain.ProvisionUnprovisioned,
			LastSeen:    time.Now(),
		}
		if err := devices.Upsert(ctx, device); err != nil {
			return nil, err
		}
		return device, nil
	}
	if err := devices.Touch(ctx, principalID, deviceID, time.Now()); err != nil {
		logger.WithField("device_id", deviceID).WithError(err).Warn("failed to touch device last-seen")
	}
	return device, nil
}

// dispatch decodes the request body, calls the matching command handler
// and encodes the response, in the canonical order the spec's command
// table lists them (spec.md §4.5).
func dispatch(ctx context.Context, deps Dependencies, rc in.RequestContext, cmd string, body []byte) ([]byte, error) {
	switch cmd {
	case "FolderSync":
		req, err := decodeFolderSyncRequest(body)
		if err != nil {
			return nil, apperr.New(apperr.CodeBadRequest, "malformed FolderSync body", fiber.StatusBadRequest).WithError(err)
		}
		res, err := deps.Service.FolderSync(ctx, rc, req)
		if err != nil {
			return nil, err
		}
		return encodeFolderSyncResponse(res, req.SyncKey == domain.ResetSyncKey)

	case "Sync":
		req, err := decodeSyncRequest(body)
		if err != nil {
			return nil, apperr.New(apperr.CodeBadRequest, "malformed Sync body", fiber.StatusBadRequest).WithError(err)
		}
		if cached, ok := checkResponseCache(ctx, deps.Cache, rc, req); ok {
			return cached, nil
		}
		res, err := deps.Service.Sync(ctx, rc, req)
		if err != nil {
			return nil, err
		}
		wire, err := encodeSyncResponse(res)
		if err != nil {
			return nil, err
		}
		cacheResponse(ctx, deps.Cache, rc, req, wire)
		return wire, nil

	case "GetItemEstimate":
		req, err := decodeGetItemEstimateRequest(body)
		if err != nil {
			return nil, apperr.New(apperr.CodeBadRequest, "malformed GetItemEstimate body", fiber.StatusBadRequest).WithError(err)
		}
		res, err := deps.Service.GetItemEstimate(ctx, rc, req)
		if err != nil {
			return nil, err
		}
		return encodeGetItemEstimateResponse(res)

	case "Ping":
		req, err := decodePingRequest(body)
		if err != nil {
			return nil, apperr.New(apperr.CodeBadRequest, "malformed Ping body", fiber.StatusBadRequest).WithError(err)
		}
		res, err := deps.Service.Ping(ctx, rc, req)
		if err != nil {
			return nil, err
		}
		return encodePingResponse(res)

	case "ItemOperations":
		req, err := decodeItemOperationsFetchRequest(body)
		if err != nil {
			return nil, apperr.New(apperr.CodeBadRequest, "malformed ItemOperations body", fiber.StatusBadRequest).WithError(err)
		}
		res, err := deps.Service.Fetch(ctx, rc, req)
		if err != nil {
			return nil, err
		}
		return encodeItemOperationsFetchResponse(req.CollectionID, res)

	default:
		return nil, apperr.New(apperr.CodeBadRequest, "unsupported command: "+cmd, fiber.StatusBadRequest)
	}
}

// handleProvision runs the Provision command outside dispatch's generic
// switch because, uniquely among commands, its result must also update
// the X-MS-PolicyKey header the dispatcher writes for every response —
// device here is the caller's local copy, mutated in place so the
// header-writing code after this returns sees the freshly issued key.
func handleProvision(ctx context.Context, deps Dependencies, rc in.RequestContext, body []byte, device *domain.Device) ([]byte, error) {
	req, err := decodeProvisionRequest(body)
	if err != nil {
		return nil, apperr.New(apperr.CodeBadRequest, "malformed Provision body", fiber.StatusBadRequest).WithError(err)
	}
	res, err := deps.Service.Provision(ctx, rc, req)
	if err != nil {
		return nil, err
	}
	if res.PolicyKey != "" {
		device.PolicyKey = res.PolicyKey
	}
	return encodeProvisionResponse(res)
}

// checkResponseCache short-circuits a Sync retry that re-presents a
// SyncKey this process already answered for every one of its
// collections, returning the exact bytes sent last time (spec.md §4.3
// invariant 5) without recomputing the projection. Anything less than a
// full-batch hit falls back to Service.Sync's own deterministic
// resend/advance logic, since a partial cache hit can't be reassembled
// byte-identically.
func checkResponseCache(ctx context.Context, cache out.ResponseCache, rc in.RequestContext, req in.SyncRequest) ([]byte, bool) {
	if cache == nil || len(req.Collections) != 1 {
		return nil, false
	}
	cr := req.Collections[0]
	key := eas.ResponseCacheKey(rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID, cr.SyncKey)
	body, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return body, true
}

// cacheResponse stores the emitted bytes under the request's own SyncKey,
// so a retry presenting that same key gets this exact response back. Single-collection requests only, matching
// checkResponseCache's read side.
func cacheResponse(ctx context.Context, cache out.ResponseCache, rc in.RequestContext, req in.SyncRequest, body []byte) {
	if cache == nil || len(req.Collections) != 1 {
		return
	}
	cr := req.Collections[0]
	key := eas.ResponseCacheKey(rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID, cr.SyncKey)
	if err := cache.Set(ctx, key, body, eas.ResponseCacheTTL); err != nil {
		logger.WithError(err).Warn("failed to cache sync response")
	}
}

func writeAppError(c *fiber.Ctx, err error) error {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		if ae.Status == fiber.StatusServiceUnavailable {
			c.Set("Retry-After", "30")
		}
		return c.SendStatus(ae.Status)
	}
	logger.WithError(err).Error("eas: unhandled dispatch error")
	return c.SendStatus(fiber.StatusInternalServerError)
}
