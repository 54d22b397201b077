package transfer

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"archiver/src/utils/config"
	"archiver/src/utils/logger"
	"archiver/src/utils/model"

	"github.com/sirupsen/logrus"
)

// Rsync backend. Handles both local folders and remote destinations in the
// [user@]host:path form, in which case rsync runs over ssh.
type Rsync struct {
	sourceFolder string
	log          *logrus.Entry
}

func NewRsync(config *config.Archiver) Backend {
	return &Rsync{
		sourceFolder: config.TransferSourceFolder,
		log:          logger.NewSublogger("transfer-rsync"),
	}
}

func (self *Rsync) Transfer(ctx context.Context, sip *model.Sip, accessionID string, destination string) (err error) {
	// Trailing slash makes rsync copy the directory contents
	src := filepath.Join(self.sourceFolder, sip.ID.String()) + "/"

	var dst string
	if strings.Contains(destination, ":") {
		// host:path destination, keep the remote path separator literal
		dst = destination + "/" + accessionID + "/"
	} else {
		dst = filepath.Join(destination, accessionID) + "/"
	}

	args := []string{"-a", "--mkpath"}
	if strings.Contains(destination, ":") {
		args = append(args, "-e", "ssh")
	}
	args = append(args, src, dst)

	self.log.WithField("sip_id", sip.ID).WithField("dst", dst).Debug("Rsyncing package")

	/* #nosec */
	cmd := exec.CommandContext(ctx, "rsync", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		self.log.WithError(err).WithField("output", string(out)).Error("Rsync failed")
		return
	}
	return nil
}
