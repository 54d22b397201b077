package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"archiver/src/utils/config"
	"archiver/src/utils/logger"
	"archiver/src/utils/model"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Demo backend that pushes each staged file over HTTP to a remote receiver.
type Push struct {
	sourceFolder string
	client       *resty.Client
	log          *logrus.Entry
}

func NewPush(config *config.Archiver) Backend {
	return &Push{
		sourceFolder: config.TransferSourceFolder,
		client: resty.New().
			SetTimeout(config.TransferTimeout).
			SetHeader("User-Agent", "archiver"),
		log: logger.NewSublogger("transfer-push"),
	}
}

func (self *Push) Transfer(ctx context.Context, sip *model.Sip, accessionID string, destination string) (err error) {
	src := filepath.Join(self.sourceFolder, sip.ID.String())

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/%s/%s", destination, accessionID, rel)
		self.log.WithField("sip_id", sip.ID).WithField("url", url).Debug("Pushing file")

		resp, err := self.client.R().
			SetContext(ctx).
			SetFile("file", path).
			Post(url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("push rejected with status: %s", resp.Status())
		}
		return nil
	})
}
