package main

import (
	"errors"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/indico"
)

var indicoCmd = &cli.Command{
	Name:  "indico",
	Usage: "Retrieve the conference program and material from Indico",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "export",
			Usage: "Saved export file",
			Value: "conference.json",
		},
		&cli.IntSliceFlag{
			Name:  "session",
			Usage: "Poster session IDs to keep, in display order",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "fetch",
			Usage: "Download the JSON export of the conference",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "url",
					Usage:    "Event export URL",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "overwrite",
					Usage: "Re-download even when the export exists",
				},
			},
			Action: func(ctx *cli.Context) error {
				return indico.RetrieveInfo(
					ctx.String("url"),
					ctx.String("export"),
					"sessions",
					ctx.Bool("overwrite"),
				)
			},
		},
		{
			Name:  "dump",
			Usage: "Write the program workbook from the saved export",
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				info, err := loadInfo(ctx)
				if err != nil {
					return err
				}

				return info.DumpExcel(conf.G().Program.ConfigFile)
			},
		},
		{
			Name:  "download",
			Usage: "Download the poster attachments",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "concurrency",
					Value: 4,
				},
				&cli.BoolFlag{
					Name:  "dry-run",
					Usage: "Only report what would be downloaded",
				},
			},
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				info, err := loadInfo(ctx)
				if err != nil {
					return err
				}

				dir := filepath.Join(conf.G().Program.RootFolder, assets.DownloadFolder)
				return info.DownloadAttachments(dir, ctx.Int("concurrency"), ctx.Bool("dry-run"))
			},
		},
		{
			Name:  "raster",
			Usage: "Convert downloaded attachments into display posters",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name: "overwrite",
				},
			},
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				root := conf.G().Program.RootFolder
				return indico.RasterizePosters(
					filepath.Join(root, assets.DownloadFolder),
					filepath.Join(root, assets.PosterFolder),
					ctx.Bool("overwrite"),
				)
			},
		},
		{
			Name:  "qrcodes",
			Usage: "Generate the QR codes of the contributions",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Value: 256,
				},
				&cli.BoolFlag{
					Name: "overwrite",
				},
			},
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				info, err := loadInfo(ctx)
				if err != nil {
					return err
				}

				dir := filepath.Join(conf.G().Program.RootFolder, assets.QRCodeFolder)
				return info.GenerateQRCodes(dir, ctx.Int("size"), ctx.Bool("overwrite"))
			},
		},
	},
}

func loadInfo(ctx *cli.Context) (*indico.ConferenceInfo, error) {
	path := ctx.String("export")
	if path == "" {
		return nil, errors.New("export file not set")
	}

	var filter []indico.SessionFilter
	for _, id := range ctx.IntSlice("session") {
		filter = append(filter, indico.SessionFilter{ID: id})
	}

	return indico.LoadInfo(path, filter)
}
