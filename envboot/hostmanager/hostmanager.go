package hostmanager

import "context"

type HostInfo struct {
	Hostname         string   `json:"hostname" yaml:"hostname"`
	DistributionID   string   `json:"distributionId" yaml:"distributionId"`
	DistributionLike []string `json:"distributionLike,omitempty" yaml:"distributionLike,omitempty"`
	VersionID        string   `json:"versionId,omitempty" yaml:"versionId,omitempty"`
	KernelVersion    string   `json:"kernelVersion" yaml:"kernelVersion"`
}

// DebianLike reports whether apt-get can be expected on the host.
func (h HostInfo) DebianLike() bool {
	if h.DistributionID == "debian" || h.DistributionID == "ubuntu" {
		return true
	}
	for _, like := range h.DistributionLike {
		if like == "debian" || like == "ubuntu" {
			return true
		}
	}
	return false
}

// HostManager gathers facts about the host.
type HostManager interface {
	Info(ctx context.Context) (HostInfo, error)
	Hostname(ctx context.Context) (string, error)
}
