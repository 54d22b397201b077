package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"archiver/src/utils/config"
	"archiver/src/utils/logger"
	"archiver/src/utils/model"

	"github.com/sirupsen/logrus"
)

// Local copy backend. Used when the Archivematica transfer source folder is
// mounted on the same host.
type Copy struct {
	sourceFolder string
	log          *logrus.Entry
}

func NewCopy(config *config.Archiver) Backend {
	return &Copy{
		sourceFolder: config.TransferSourceFolder,
		log:          logger.NewSublogger("transfer-copy"),
	}
}

func (self *Copy) Transfer(ctx context.Context, sip *model.Sip, accessionID string, destination string) (err error) {
	src := filepath.Join(self.sourceFolder, sip.ID.String())
	dst := filepath.Join(destination, accessionID)

	err = os.MkdirAll(dst, 0750)
	if err != nil {
		return
	}

	self.log.WithField("sip_id", sip.ID).WithField("dst", dst).Debug("Copying package")

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0750)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) (err error) {
	/* #nosec */
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return
	}

	return out.Close()
}
