package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/evepupil/anki-genix-backend/models"
	"github.com/evepupil/anki-genix-backend/store"
)

// ValidationError: request/task không hợp lệ. Khác với lỗi sinh nội dung —
// validation fail không mutate trạng thái task.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError phân biệt lỗi validation với lỗi sinh nội dung
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TaskRepo là phần persistence mà workflow cần cho task
type TaskRepo interface {
	GetByID(taskID uuid.UUID) (*models.TaskInfo, error)
	UpdateStatus(taskID uuid.UUID, status string) error
	UpdateInputDataField(taskID uuid.UUID, field string, value interface{}) error
}

// CatalogRepo là phần persistence mà workflow cần cho catalog
type CatalogRepo interface {
	Create(catalog *models.CatalogInfo) error
	GetByTaskID(taskID uuid.UUID) (*models.CatalogInfo, error)
	UpdateSelected(taskID uuid.UUID, selected []byte) error
	DeleteByTaskID(taskID uuid.UUID) (int64, error)
}

// FlashcardRepo là phần persistence mà workflow cần cho result/thẻ
type FlashcardRepo interface {
	CreateResult(result *models.FlashcardResult) error
	BatchCreateCards(cards []models.Flashcard) error
	UpdateTotalCount(resultID uuid.UUID, totalCount int) error
}

// StatusNotifier nhận thông báo mỗi lần task đổi trạng thái (ws hub)
type StatusNotifier interface {
	NotifyStatus(taskID uuid.UUID, status string)
}

// TaskWorkflow điều khiển một task qua pipeline sinh nội dung.
// Mỗi bước ghi trạng thái ngay lập tức nên client polling luôn thấy chuỗi
// trạng thái tiến dần; single-writer-per-task, không lock.
type TaskWorkflow struct {
	tasks    TaskRepo
	catalogs CatalogRepo
	cards    FlashcardRepo
	ai       AIService
	prompts  *PromptStore
	crawler  *WebCrawler
	notifier StatusNotifier
	logger   *zap.Logger
}

func NewTaskWorkflow(
	tasks TaskRepo,
	catalogs CatalogRepo,
	cards FlashcardRepo,
	ai AIService,
	prompts *PromptStore,
	crawler *WebCrawler,
	notifier StatusNotifier,
	logger *zap.Logger,
) *TaskWorkflow {
	return &TaskWorkflow{
		tasks:    tasks,
		catalogs: catalogs,
		cards:    cards,
		ai:       ai,
		prompts:  prompts,
		crawler:  crawler,
		notifier: notifier,
		logger:   logger.Named("workflow"),
	}
}

// validateTask kiểm tra task trước khi chạy bước sinh nội dung:
// tồn tại, đúng task_type, đúng workflow_type, chưa kết thúc.
// Fail ở đây không đụng gì đến task.
func (w *TaskWorkflow) validateTask(taskID uuid.UUID, expectedTaskType, expectedWorkflowType string) (*models.TaskInfo, error) {
	task, err := w.tasks.GetByID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationErrorf("task không tồn tại: %s", taskID)
		}
		return nil, err
	}
	if expectedTaskType != "" && task.TaskType != expectedTaskType {
		return nil, validationErrorf("loại task không khớp, cần: %s, thực tế: %s", expectedTaskType, task.TaskType)
	}
	if expectedWorkflowType != "" && task.WorkflowType != expectedWorkflowType {
		return nil, validationErrorf("loại workflow không khớp, cần: %s, thực tế: %s", expectedWorkflowType, task.WorkflowType)
	}
	if task.IsTerminal() {
		return nil, validationErrorf("task đã kết thúc, trạng thái hiện tại: %s", task.Status)
	}
	return task, nil
}

func (w *TaskWorkflow) setStatus(taskID uuid.UUID, status string) {
	if err := w.tasks.UpdateStatus(taskID, status); err != nil {
		// ghi trạng thái là fire-and-forget, lỗi chỉ log
		w.logger.Error("ghi trạng thái task thất bại",
			zap.String("task_id", taskID.String()),
			zap.String("status", status),
			zap.Error(err))
		return
	}
	if w.notifier != nil {
		w.notifier.NotifyStatus(taskID, status)
	}
}

func (w *TaskWorkflow) fail(taskID uuid.UUID, err error) error {
	w.setStatus(taskID, models.TaskStatusFailed)
	return err
}

// failUnlessValidation: lỗi validation không được mutate trạng thái task
func (w *TaskWorkflow) failUnlessValidation(taskID uuid.UUID, err error) error {
	if IsValidationError(err) {
		return err
	}
	return w.fail(taskID, err)
}

// ===== Catalog =====

// AnalyzeCatalogFromTopic sinh mục lục từ tên chủ đề, stateless (không task)
func (w *TaskWorkflow) AnalyzeCatalogFromTopic(ctx context.Context, topic, lang string) ([]*CatalogNode, error) {
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: "catalog_analysis", Form: FormText, Mode: ModeTopic},
		map[string]string{"TOPIC": topic, "lang": lang},
	)
	if err != nil {
		return nil, err
	}

	output, err := w.ai.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI xử lý thất bại: %w", err)
	}

	nodes, ok := ParseAIResult(output).DecodeCatalog()
	if !ok {
		return nil, fmt.Errorf("AI không trả về mục lục hợp lệ")
	}
	AssignSectionIDs(nodes)
	return nodes, nil
}

// ExtractCatalogFromText chạy lượt đầu của workflow extract_catalog với
// input text: sinh mục lục, lưu catalog, đỗ task ở catalog_ready chờ chọn mục.
func (w *TaskWorkflow) ExtractCatalogFromText(ctx context.Context, taskID uuid.UUID, lang string) (*models.CatalogInfo, error) {
	task, err := w.validateTask(taskID, models.TaskTypeText, models.WorkflowExtractCatalog)
	if err != nil {
		return nil, err
	}
	text, _ := task.InputData["text"].(string)
	if text == "" {
		return nil, validationErrorf("task %s không có nội dung text", taskID)
	}

	w.setStatus(taskID, models.TaskStatusAIProcessing)
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: "catalog_analysis", Form: FormText, Mode: ModeFull},
		map[string]string{"TEXT_CONTENT": text, "lang": lang},
	)
	if err != nil {
		return nil, w.fail(taskID, err)
	}
	output, err := w.ai.Chat(ctx, prompt)
	if err != nil {
		return nil, w.fail(taskID, fmt.Errorf("AI xử lý thất bại: %w", err))
	}

	return w.storeCatalog(task, output)
}

// ExtractCatalogFromFile như ExtractCatalogFromText nhưng input là file:
// upload file lên AI (media ref cache trong input_data) rồi chat kèm media.
func (w *TaskWorkflow) ExtractCatalogFromFile(ctx context.Context, taskID uuid.UUID, filePath, lang string) (*models.CatalogInfo, error) {
	task, err := w.validateTask(taskID, models.TaskTypeFile, models.WorkflowExtractCatalog)
	if err != nil {
		return nil, err
	}

	media, err := w.ensureMediaUploaded(ctx, task, filePath)
	if err != nil {
		return nil, w.failUnlessValidation(taskID, err)
	}

	w.setStatus(taskID, models.TaskStatusAIProcessing)
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: "catalog_analysis", Form: FormFile, Mode: ModeFull},
		map[string]string{"lang": lang},
	)
	if err != nil {
		return nil, w.fail(taskID, err)
	}
	output, err := w.ai.ChatWithMedia(ctx, prompt, media, taskID.String())
	if err != nil {
		return nil, w.fail(taskID, fmt.Errorf("AI xử lý thất bại: %w", err))
	}

	return w.storeCatalog(task, output)
}

func (w *TaskWorkflow) storeCatalog(task *models.TaskInfo, aiOutput string) (*models.CatalogInfo, error) {
	w.setStatus(task.ID, models.TaskStatusGeneratingCatalog)

	nodes, ok := ParseAIResult(aiOutput).DecodeCatalog()
	if !ok {
		return nil, w.fail(task.ID, fmt.Errorf("AI không trả về mục lục hợp lệ"))
	}
	AssignSectionIDs(nodes)

	data, err := json.Marshal(nodes)
	if err != nil {
		return nil, w.fail(task.ID, err)
	}
	// chạy lại lượt extract thì catalog cũ bị thay thế, selected về rỗng
	if _, err := w.catalogs.DeleteByTaskID(task.ID); err != nil {
		return nil, w.fail(task.ID, fmt.Errorf("xóa catalog cũ thất bại: %w", err))
	}
	catalog := &models.CatalogInfo{
		TaskID:      task.ID,
		UserID:      task.UserID,
		CatalogData: datatypes.JSON(data),
		Selected:    datatypes.JSON([]byte("[]")),
	}
	if err := w.catalogs.Create(catalog); err != nil {
		return nil, w.fail(task.ID, fmt.Errorf("lưu catalog thất bại: %w", err))
	}

	// đỗ tại catalog_ready, chờ người dùng chọn mục rồi mới sinh thẻ
	w.setStatus(task.ID, models.TaskStatusCatalogReady)
	return catalog, nil
}

// SelectCatalogSections thay thế toàn bộ danh sách node đã chọn.
// selected phải là tập con các id có trong catalog_data.
func (w *TaskWorkflow) SelectCatalogSections(taskID uuid.UUID, selectedIDs []string) error {
	if len(selectedIDs) == 0 {
		return validationErrorf("danh sách mục chọn rỗng")
	}
	if _, err := w.validateTask(taskID, "", models.WorkflowExtractCatalog); err != nil {
		return err
	}

	catalog, err := w.catalogs.GetByTaskID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationErrorf("task %s chưa có catalog", taskID)
		}
		return err
	}
	nodes, err := DecodeCatalogNodes(catalog.CatalogData)
	if err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, id := range CollectSectionIDs(nodes) {
		known[id] = true
	}
	for _, id := range selectedIDs {
		if !known[id] {
			return validationErrorf("mục %q không có trong catalog", id)
		}
	}

	data, err := json.Marshal(selectedIDs)
	if err != nil {
		return err
	}
	return w.catalogs.UpdateSelected(taskID, data)
}

// ===== Sinh thẻ trực tiếp (direct_generate) =====

// CardGenerationResult là kết quả một lần sinh thẻ
type CardGenerationResult struct {
	ResultID uuid.UUID          `json:"result_id"`
	Cards    []models.Flashcard `json:"cards"`
	Total    int                `json:"total"`
}

// GenerateCardsFromTopic sinh thẻ từ tên chủ đề, stateless, không lưu DB
func (w *TaskWorkflow) GenerateCardsFromTopic(ctx context.Context, cardType, topic string, number int, lang string) ([]datatypes.JSON, error) {
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: cardType, Form: FormText, Mode: ModeTopic},
		map[string]string{"TOPIC": topic, "NUMBER": fmt.Sprintf("%d", number), "lang": lang},
	)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	output, err := w.ai.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI xử lý thất bại: %w", err)
	}
	payloads, ok := decodeCardPayloads(ParseAIResult(output), cardType)
	if !ok || len(payloads) == 0 {
		return nil, fmt.Errorf("AI không trả về danh sách thẻ hợp lệ")
	}
	return payloads, nil
}

// GenerateCardsFromText sinh thẻ từ nội dung text của task (direct_generate)
func (w *TaskWorkflow) GenerateCardsFromText(ctx context.Context, taskID uuid.UUID, cardType string, number int, lang string) (*CardGenerationResult, error) {
	task, err := w.validateTask(taskID, models.TaskTypeText, models.WorkflowDirectGenerate)
	if err != nil {
		return nil, err
	}
	text, _ := task.InputData["text"].(string)
	if text == "" {
		return nil, validationErrorf("task %s không có nội dung text", taskID)
	}

	w.setStatus(taskID, models.TaskStatusAIProcessing)
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: cardType, Form: FormText, Mode: ModeFull},
		map[string]string{"TEXT_CONTENT": text, "NUMBER": fmt.Sprintf("%d", number), "lang": lang},
	)
	if err != nil {
		return nil, w.fail(taskID, err)
	}
	output, err := w.ai.Chat(ctx, prompt)
	if err != nil {
		return nil, w.fail(taskID, fmt.Errorf("AI xử lý thất bại: %w", err))
	}

	return w.storeCards(task, output, cardType, models.SourceTypeText, nil, nil)
}

// GenerateCardsFromFile sinh thẻ từ file của task (direct_generate)
func (w *TaskWorkflow) GenerateCardsFromFile(ctx context.Context, taskID uuid.UUID, filePath, cardType string, number int, lang string) (*CardGenerationResult, error) {
	task, err := w.validateTask(taskID, models.TaskTypeFile, models.WorkflowDirectGenerate)
	if err != nil {
		return nil, err
	}

	media, err := w.ensureMediaUploaded(ctx, task, filePath)
	if err != nil {
		return nil, w.failUnlessValidation(taskID, err)
	}

	w.setStatus(taskID, models.TaskStatusAIProcessing)
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: cardType, Form: FormFile, Mode: ModeFull},
		map[string]string{"NUMBER": fmt.Sprintf("%d", number), "lang": lang},
	)
	if err != nil {
		return nil, w.fail(taskID, err)
	}
	output, err := w.ai.ChatWithMedia(ctx, prompt, media, taskID.String())
	if err != nil {
		return nil, w.fail(taskID, fmt.Errorf("AI xử lý thất bại: %w", err))
	}

	return w.storeCards(task, output, cardType, models.SourceTypeFile, nil, nil)
}

// GenerateCardsFromURL crawl trang web rồi sinh thẻ từ text thu được.
// taskID == uuid.Nil là chế độ stateless: không cập nhật trạng thái, không lưu DB.
func (w *TaskWorkflow) GenerateCardsFromURL(ctx context.Context, taskID uuid.UUID, url, cardType string, number int, lang string) (*CardGenerationResult, []datatypes.JSON, error) {
	stateless := taskID == uuid.Nil

	var task *models.TaskInfo
	if !stateless {
		var err error
		task, err = w.validateTask(taskID, models.TaskTypeWeb, models.WorkflowDirectGenerate)
		if err != nil {
			return nil, nil, err
		}
		if url == "" {
			url, _ = task.InputData["url"].(string)
		}
	}
	if url == "" {
		return nil, nil, validationErrorf("thiếu url")
	}

	text, err := w.crawler.FetchText(ctx, url)
	if err != nil {
		if stateless {
			return nil, nil, err
		}
		return nil, nil, w.fail(taskID, err)
	}

	if !stateless {
		w.setStatus(taskID, models.TaskStatusAIProcessing)
	}
	prompt, err := w.prompts.Build(
		PromptKey{ContentKind: cardType, Form: FormText, Mode: ModeFull},
		map[string]string{"TEXT_CONTENT": text, "NUMBER": fmt.Sprintf("%d", number), "lang": lang},
	)
	if err != nil {
		if stateless {
			return nil, nil, err
		}
		return nil, nil, w.fail(taskID, err)
	}
	output, err := w.ai.Chat(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("AI xử lý thất bại: %w", err)
		if stateless {
			return nil, nil, err
		}
		return nil, nil, w.fail(taskID, err)
	}

	if stateless {
		payloads, ok := decodeCardPayloads(ParseAIResult(output), cardType)
		if !ok || len(payloads) == 0 {
			return nil, nil, fmt.Errorf("AI không trả về danh sách thẻ hợp lệ")
		}
		return nil, payloads, nil
	}

	result, err := w.storeCards(task, output, cardType, models.SourceTypeWeb, nil, nil)
	return result, nil, err
}

// storeCards parse output AI và ghi result + thẻ; output không phải JSON list
// là thất bại của cả lần sinh.
func (w *TaskWorkflow) storeCards(task *models.TaskInfo, aiOutput, cardType, sourceType string, catalogID *uuid.UUID, sectionID *string) (*CardGenerationResult, error) {
	w.setStatus(task.ID, models.TaskStatusGeneratingCards)

	payloads, ok := decodeCardPayloads(ParseAIResult(aiOutput), cardType)
	if !ok || len(payloads) == 0 {
		return nil, w.fail(task.ID, fmt.Errorf("AI không trả về danh sách thẻ hợp lệ"))
	}

	result := &models.FlashcardResult{
		TaskID:     task.ID,
		UserID:     task.UserID,
		SourceType: sourceType,
		CatalogID:  catalogID,
		TotalCount: len(payloads),
	}
	if err := w.cards.CreateResult(result); err != nil {
		return nil, w.fail(task.ID, fmt.Errorf("lưu result thất bại: %w", err))
	}

	cards := make([]models.Flashcard, 0, len(payloads))
	for i, payload := range payloads {
		cards = append(cards, models.Flashcard{
			ResultID:   result.ID,
			UserID:     task.UserID,
			CardType:   cardType,
			CardData:   payload,
			OrderIndex: i,
			CatalogID:  catalogID,
			SectionID:  sectionID,
		})
	}
	if err := w.cards.BatchCreateCards(cards); err != nil {
		return nil, w.fail(task.ID, fmt.Errorf("lưu thẻ thất bại: %w", err))
	}

	w.setStatus(task.ID, models.TaskStatusCompleted)
	return &CardGenerationResult{ResultID: result.ID, Cards: cards, Total: len(cards)}, nil
}

// ===== Sinh thẻ theo mục đã chọn (lượt hai của extract_catalog) =====

// SectionResult là kết quả của một mục trong lần sinh nhiều mục
type SectionResult struct {
	SectionID string             `json:"section_id"`
	Title     string             `json:"title"`
	Count     int                `json:"count"`
	Cards     []models.Flashcard `json:"cards"`
}

// SectionGenerationResult là kết quả tổng hợp của lần sinh nhiều mục
type SectionGenerationResult struct {
	ResultID       uuid.UUID          `json:"result_id"`
	Cards          []models.Flashcard `json:"cards"`
	Total          int                `json:"total"`
	SectionResults []SectionResult    `json:"section_results"`
}

// GenerateCardsForSections chạy lượt hai của extract_catalog: với mỗi mục đã
// chọn gọi AI một lần độc lập. Mục nào output không parse được thì log và bỏ,
// không dừng các mục còn lại; chỉ khi TẤT CẢ mục thất bại mới coi là job fail.
func (w *TaskWorkflow) GenerateCardsForSections(ctx context.Context, taskID uuid.UUID, form InputForm, filePath, cardType string, number int, lang string) (*SectionGenerationResult, error) {
	expectedTaskType := models.TaskTypeText
	if form == FormFile {
		expectedTaskType = models.TaskTypeFile
	}
	task, err := w.validateTask(taskID, expectedTaskType, models.WorkflowExtractCatalog)
	if err != nil {
		return nil, err
	}

	catalog, err := w.catalogs.GetByTaskID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationErrorf("task %s chưa có catalog", taskID)
		}
		return nil, err
	}
	nodes, err := DecodeCatalogNodes(catalog.CatalogData)
	if err != nil {
		return nil, err
	}
	var selectedIDs []string
	if len(catalog.Selected) > 0 {
		if err := json.Unmarshal(catalog.Selected, &selectedIDs); err != nil {
			return nil, err
		}
	}
	// chỉ giữ node sâu nhất; id cũ không còn trong cây bị bỏ qua
	sections := ResolveSelectedTitles(nodes, selectedIDs)
	if len(sections) == 0 {
		return nil, validationErrorf("task %s chưa chọn mục nào trong catalog", taskID)
	}

	var media []MediaRef
	var text string
	if form == FormFile {
		media, err = w.ensureMediaUploaded(ctx, task, filePath)
		if err != nil {
			return nil, w.failUnlessValidation(taskID, err)
		}
	} else {
		text, _ = task.InputData["text"].(string)
		if text == "" {
			return nil, validationErrorf("task %s không có nội dung text", taskID)
		}
	}

	w.setStatus(taskID, models.TaskStatusAIProcessing)

	// fan-out: mỗi mục một lời gọi AI độc lập, thất bại cục bộ chỉ bị loại
	sectionOutputs := make([]SectionResult, 0, len(sections))
	failures := 0
	for _, section := range sections {
		params := map[string]string{
			"SECTION_TITLE": section.Title,
			"NUMBER":        fmt.Sprintf("%d", number),
			"lang":          lang,
		}
		if form == FormText {
			params["TEXT_CONTENT"] = text
		}
		prompt, perr := w.prompts.Build(
			PromptKey{ContentKind: cardType, Form: form, Mode: ModeSection},
			params,
		)
		if perr != nil {
			return nil, w.fail(taskID, perr)
		}

		var output string
		var aerr error
		if form == FormFile {
			output, aerr = w.ai.ChatWithMedia(ctx, prompt, media, taskID.String())
		} else {
			output, aerr = w.ai.Chat(ctx, prompt)
		}
		if aerr != nil {
			w.logger.Warn("AI lỗi ở mục, bỏ qua",
				zap.String("task_id", taskID.String()),
				zap.String("section_id", section.SectionID),
				zap.Error(aerr))
			sectionOutputs = append(sectionOutputs, SectionResult{SectionID: section.SectionID, Title: section.Title})
			failures++
			continue
		}

		payloads, ok := decodeCardPayloads(ParseAIResult(output), cardType)
		if !ok || len(payloads) == 0 {
			w.logger.Warn("output mục không parse được, bỏ qua",
				zap.String("task_id", taskID.String()),
				zap.String("section_id", section.SectionID))
			sectionOutputs = append(sectionOutputs, SectionResult{SectionID: section.SectionID, Title: section.Title})
			failures++
			continue
		}

		sectionID := section.SectionID
		cards := make([]models.Flashcard, 0, len(payloads))
		for _, payload := range payloads {
			cards = append(cards, models.Flashcard{
				UserID:    task.UserID,
				CardType:  cardType,
				CardData:  payload,
				CatalogID: &catalog.ID,
				SectionID: &sectionID,
			})
		}
		sectionOutputs = append(sectionOutputs, SectionResult{
			SectionID: section.SectionID,
			Title:     section.Title,
			Count:     len(cards),
			Cards:     cards,
		})
	}

	if failures == len(sections) {
		return nil, w.fail(taskID, fmt.Errorf("tất cả %d mục đều thất bại", len(sections)))
	}

	w.setStatus(taskID, models.TaskStatusGeneratingCards)

	sourceType := models.SourceTypeText
	if form == FormFile {
		sourceType = models.SourceTypeFile
	}
	result := &models.FlashcardResult{
		TaskID:     task.ID,
		UserID:     task.UserID,
		SourceType: sourceType,
		CatalogID:  &catalog.ID,
	}
	if err := w.cards.CreateResult(result); err != nil {
		return nil, w.fail(taskID, fmt.Errorf("lưu result thất bại: %w", err))
	}

	// ghép thẻ theo thứ tự mục, order_index chạy liên tục
	var allCards []models.Flashcard
	orderIndex := 0
	for si := range sectionOutputs {
		for ci := range sectionOutputs[si].Cards {
			sectionOutputs[si].Cards[ci].ResultID = result.ID
			sectionOutputs[si].Cards[ci].OrderIndex = orderIndex
			orderIndex++
			allCards = append(allCards, sectionOutputs[si].Cards[ci])
		}
	}
	if err := w.cards.BatchCreateCards(allCards); err != nil {
		return nil, w.fail(taskID, fmt.Errorf("lưu thẻ thất bại: %w", err))
	}
	if err := w.cards.UpdateTotalCount(result.ID, len(allCards)); err != nil {
		w.logger.Error("cập nhật total_count thất bại",
			zap.String("result_id", result.ID.String()), zap.Error(err))
	}

	w.setStatus(taskID, models.TaskStatusCompleted)
	return &SectionGenerationResult{
		ResultID:       result.ID,
		Cards:          allCards,
		Total:          len(allCards),
		SectionResults: sectionOutputs,
	}, nil
}

// ===== Helpers =====

// ensureMediaUploaded upload file lên AI nếu task chưa có media ref cache.
// Ref cache trong input_data["media_refs"], sống theo đời task, không TTL.
func (w *TaskWorkflow) ensureMediaUploaded(ctx context.Context, task *models.TaskInfo, filePath string) ([]MediaRef, error) {
	if cached := mediaRefsFromTask(task); len(cached) > 0 {
		w.logger.Info("dùng lại media ref đã cache", zap.String("task_id", task.ID.String()))
		return cached, nil
	}
	if filePath == "" {
		filePath, _ = task.InputData["file_path"].(string)
	}
	if filePath == "" {
		return nil, validationErrorf("task %s không có file", task.ID)
	}

	w.setStatus(task.ID, models.TaskStatusFileUploading)
	media, err := w.ai.UploadFiles(ctx, []string{filePath})
	if err != nil {
		return nil, fmt.Errorf("upload file lên AI thất bại: %w", err)
	}
	if err := w.tasks.UpdateInputDataField(task.ID, "media_refs", media); err != nil {
		// cache hỏng chỉ khiến lần sau upload lại, không chặn bước hiện tại
		w.logger.Warn("cache media ref thất bại",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}
	return media, nil
}

func mediaRefsFromTask(task *models.TaskInfo) []MediaRef {
	raw, ok := task.InputData["media_refs"]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var refs []MediaRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil
	}
	return refs
}

// decodeCardPayloads decode output AI thành payload JSONB theo card type,
// loại các thẻ thiếu field bắt buộc
func decodeCardPayloads(res AIResult, cardType string) ([]datatypes.JSON, bool) {
	switch cardType {
	case models.CardTypeBasic:
		var items []models.BasicCardData
		if !res.DecodeCardList(&items) {
			return nil, false
		}
		payloads := make([]datatypes.JSON, 0, len(items))
		for _, item := range items {
			if item.Question == "" || item.Answer == "" {
				continue
			}
			data, _ := json.Marshal(item)
			payloads = append(payloads, data)
		}
		return payloads, true
	case models.CardTypeCloze:
		var items []models.ClozeCardData
		if !res.DecodeCardList(&items) {
			return nil, false
		}
		payloads := make([]datatypes.JSON, 0, len(items))
		for _, item := range items {
			if item.Text == "" {
				continue
			}
			data, _ := json.Marshal(item)
			payloads = append(payloads, data)
		}
		return payloads, true
	case models.CardTypeMultipleChoice:
		var items []models.ChoiceCardData
		if !res.DecodeCardList(&items) {
			return nil, false
		}
		payloads := make([]datatypes.JSON, 0, len(items))
		for _, item := range items {
			if item.Question == "" || len(item.Options) == 0 {
				continue
			}
			if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
				continue
			}
			data, _ := json.Marshal(item)
			payloads = append(payloads, data)
		}
		return payloads, true
	}
	return nil, false
}
