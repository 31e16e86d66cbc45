package profileproperty

import (
	"context"
	"log/slog"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/errors"
	"github.com/tendant/profile-property-node/pkg/identity"
)

// Principal names the authenticated user whose attributes are projected.
type Principal struct {
	Realm    string
	Username string
}

// Status is where a projection pass ended.
type Status string

const (
	StatusEnriched          Status = "enriched"
	StatusSkippedNoIdentity Status = "skipped_no_identity"
)

// Report describes one projection pass. Written, Missing and Failed hold
// source attribute names.
type Report struct {
	Status    Status                `json:"status"`
	Lookup    identity.LookupStatus `json:"-"`
	Requested []string              `json:"requested"`
	Written   []string              `json:"written"`
	Missing   []string              `json:"missing"`
	Failed    []string              `json:"failed"`
}

// Project looks up every attribute in mapping with one batched call and
// writes each one that has values into sink. It never fails: an unknown
// principal or a backend error results in zero writes, and a sink error on
// one key does not stop the others.
func Project(ctx context.Context, principal Principal, mapping PropertyMapping, repository identity.IdentityRepository, sink authtree.StateSink) Report {
	report := Report{Status: StatusEnriched, Requested: mapping.SourceAttributes()}
	if len(report.Requested) == 0 {
		return report
	}

	result := identity.Lookup(ctx, repository, principal.Realm, principal.Username, report.Requested)
	report.Lookup = result.Status

	switch result.Status {
	case identity.LookupNotFound:
		slog.Error("Unable to find user identity, profile attributes will not be saved in shared state",
			"username", principal.Username, "realm", identity.NormalizeRealm(principal.Realm))
		report.Status = StatusSkippedNoIdentity
		return report
	case identity.LookupBackendError:
		slog.Error("Identity lookup failed, profile attributes will not be saved in shared state",
			"err", result.Err, "username", principal.Username, "realm", identity.NormalizeRealm(principal.Realm))
		report.Status = StatusSkippedNoIdentity
		return report
	}

	for _, source := range report.Requested {
		destination := mapping[source]

		value, ok := shapeValue(result.Values.Values(source))
		if !ok {
			slog.Warn("Unable to find attribute value", "attribute", source, "username", principal.Username)
			report.Missing = append(report.Missing, source)
			continue
		}

		if err := sink.PutShared(destination, value); err != nil {
			slog.Error("Failed to write profile attribute to shared state",
				"err", errors.StateWriteFailed(destination, err), "attribute", source)
			report.Failed = append(report.Failed, source)
			continue
		}
		slog.Debug("Profile attribute written", "attribute", source, "key", destination, "values", value.Len())
		report.Written = append(report.Written, source)
	}

	return report
}

// shapeValue turns one value into a Scalar and several into a Sequence.
func shapeValue(values []string) (authtree.Value, bool) {
	switch len(values) {
	case 0:
		return authtree.Value{}, false
	case 1:
		return authtree.Scalar(values[0]), true
	default:
		return authtree.Sequence(values...), true
	}
}
