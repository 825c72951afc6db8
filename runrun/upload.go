package runrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"runrun-importer/runrun/domain"
)

const DefaultStorageURL = "https://gryvnagsfedj.compat.objectstorage.sa-saopaulo-1.oraclecloud.com/runrunit"

// Ordem dos campos da política pré-assinada; o arquivo vai por último.
var presignedFieldOrder = []string{
	"key", "Policy", "X-Amz-Algorithm", "X-Amz-Credential", "X-Amz-Date", "X-Amz-Signature",
}

// Uploader anexa um arquivo a uma tarefa: cria o documento, envia o arquivo
// ao object storage e marca o documento como enviado.
//
// O POST ao storage não passa pelo limiter nem tem retry: não é a API do Runrun.it.
type Uploader struct {
	Client     *Client
	StorageURL string
	HTTP       *http.Client
	Logger     *slog.Logger
}

func (u *Uploader) Attach(ctx context.Context, taskID, path string) (domain.Document, error) {
	if u.StorageURL == "" {
		u.StorageURL = DefaultStorageURL
	}
	if u.HTTP == nil {
		u.HTTP = &http.Client{Timeout: 10 * time.Minute}
	}
	if u.Logger == nil {
		u.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	name := filepath.Base(path)

	doc, err := u.Client.CreateDocument(ctx, taskID, name, info.Size())
	if err != nil {
		return domain.Document{}, err
	}
	u.Logger.Info("document created", "task_id", taskID, "document_id", doc.ID, "file", name)

	if err := u.upload(ctx, doc, path, name); err != nil {
		return doc, err
	}
	u.Logger.Info("file uploaded", "document_id", doc.ID)

	if err := u.Client.MarkDocumentUploaded(ctx, string(doc.ID)); err != nil {
		return doc, err
	}
	return doc, nil
}

func (u *Uploader) upload(ctx context.Context, doc domain.Document, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, doc.Fields, name, f))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.StorageURL, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.HTTP.Do(req)
	if err != nil {
		pr.Close()
		return fmt.Errorf("upload to storage: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read storage response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.APIError{
			Status:   resp.StatusCode,
			Method:   http.MethodPost,
			Endpoint: u.StorageURL,
			Body:     string(body),
		}
	}
	return nil
}

func writeUploadForm(mw *multipart.Writer, fields map[string]string, name string, file io.Reader) error {
	written := make(map[string]bool, len(fields))
	for _, k := range presignedFieldOrder {
		if v, ok := fields[k]; ok {
			if err := mw.WriteField(k, v); err != nil {
				return err
			}
			written[k] = true
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if !written[k] && k != "success_action_status" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}
	if err := mw.WriteField("success_action_status", "201"); err != nil {
		return err
	}

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}
