package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyLoad              = "load"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyLanguage          = "language"
	KeyCacheDirectory    = "cache_directory"
	KeyMaxParallel       = "max_parallel"
	KeySlideDuration     = "slide_duration"
	KeyLoadTimeout       = "load_timeout"
	KeySwipeRightNext    = "swipe_right_next"
	KeyProbeMedia        = "probe_media"
	KeyLogLevel          = "log_level"
	KeySave              = "save"
	KeyCancel            = "cancel"
	KeyBrowse            = "browse"
	KeyEnterSource       = "enter_source"
	KeySettingsSaved     = "settings_saved"
	KeyInvalidURL        = "invalid_url"
	KeyPleaseEnterSource = "please_enter_source"
	KeyLoadingFeed       = "loading_feed"
	KeyFeedLoaded        = "feed_loaded"
	KeyFeedFailed        = "feed_failed"
	KeyRetry             = "retry"
	KeyLoadFailed        = "load_failed"
	KeyClearCache        = "clear_cache"
	KeyCacheCleared      = "cache_cleared"
	KeyCacheSize         = "cache_size"
	KeyVideoUnavailable  = "video_unavailable"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "Story Viewer",
		KeyLoad:              "Load",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyLanguage:          "Language",
		KeyCacheDirectory:    "Cache Directory",
		KeyMaxParallel:       "Max Parallel Fetches",
		KeySlideDuration:     "Image Duration (ms)",
		KeyLoadTimeout:       "Load Timeout (ms)",
		KeySwipeRightNext:    "Swipe right shows next",
		KeyProbeMedia:        "Verify media before showing",
		KeyLogLevel:          "Log Level",
		KeySave:              "Save",
		KeyCancel:            "Cancel",
		KeyBrowse:            "Browse",
		KeyEnterSource:       "Playlist URL, media URL or path to a URL list",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyInvalidURL:        "Invalid URL",
		KeyPleaseEnterSource: "Please enter a source",
		KeyLoadingFeed:       "Loading feed...",
		KeyFeedLoaded:        "Feed loaded",
		KeyFeedFailed:        "Could not load feed",
		KeyRetry:             "Retry",
		KeyLoadFailed:        "Could not load media",
		KeyClearCache:        "Clear Cache",
		KeyCacheCleared:      "Cache cleared",
		KeyCacheSize:         "Cache size",
		KeyVideoUnavailable:  "Video preview",
	}

	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "Просмотр историй",
		KeyLoad:              "Загрузить",
		KeySettings:          "Настройки",
		KeyFile:              "Файл",
		KeyLanguage:          "Язык",
		KeyCacheDirectory:    "Папка кэша",
		KeyMaxParallel:       "Макс. параллельных загрузок",
		KeySlideDuration:     "Показ изображения (мс)",
		KeyLoadTimeout:       "Тайм-аут загрузки (мс)",
		KeySwipeRightNext:    "Свайп вправо - следующая",
		KeyProbeMedia:        "Проверять медиа перед показом",
		KeyLogLevel:          "Уровень журнала",
		KeySave:              "Сохранить",
		KeyCancel:            "Отмена",
		KeyBrowse:            "Обзор",
		KeyEnterSource:       "URL плейлиста, медиа или путь к списку URL",
		KeySettingsSaved:     "Настройки успешно сохранены!",
		KeyInvalidURL:        "Неверный URL",
		KeyPleaseEnterSource: "Пожалуйста, укажите источник",
		KeyLoadingFeed:       "Загрузка ленты...",
		KeyFeedLoaded:        "Лента загружена",
		KeyFeedFailed:        "Не удалось загрузить ленту",
		KeyRetry:             "Повторить",
		KeyLoadFailed:        "Не удалось загрузить медиа",
		KeyClearCache:        "Очистить кэш",
		KeyCacheCleared:      "Кэш очищен",
		KeyCacheSize:         "Размер кэша",
		KeyVideoUnavailable:  "Превью видео",
	}

	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "Visualizador de Stories",
		KeyLoad:              "Carregar",
		KeySettings:          "Configurações",
		KeyFile:              "Arquivo",
		KeyLanguage:          "Idioma",
		KeyCacheDirectory:    "Diretório de Cache",
		KeyMaxParallel:       "Max Downloads Paralelos",
		KeySlideDuration:     "Duração da Imagem (ms)",
		KeyLoadTimeout:       "Tempo Limite (ms)",
		KeySwipeRightNext:    "Deslizar à direita avança",
		KeyProbeMedia:        "Verificar mídia antes de exibir",
		KeyLogLevel:          "Nível de Log",
		KeySave:              "Salvar",
		KeyCancel:            "Cancelar",
		KeyBrowse:            "Navegar",
		KeyEnterSource:       "URL de playlist, de mídia ou caminho de lista",
		KeySettingsSaved:     "Configurações salvas com sucesso!",
		KeyInvalidURL:        "URL inválida",
		KeyPleaseEnterSource: "Por favor, informe uma origem",
		KeyLoadingFeed:       "Carregando feed...",
		KeyFeedLoaded:        "Feed carregado",
		KeyFeedFailed:        "Não foi possível carregar o feed",
		KeyRetry:             "Tentar novamente",
		KeyLoadFailed:        "Não foi possível carregar a mídia",
		KeyClearCache:        "Limpar Cache",
		KeyCacheCleared:      "Cache limpo",
		KeyCacheSize:         "Tamanho do cache",
		KeyVideoUnavailable:  "Prévia de vídeo",
	}
}
