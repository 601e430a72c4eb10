package handler

import (
	"fmt"

	"supportbot/internal/domain"
)

var texts = map[string]map[string]string{
	domain.LanguageRU: {
		"main_menu":         "🏠 Главное меню\n\nВыберите действие:",
		"btn_new_ticket":    "✉️ Новое обращение",
		"btn_set_email":     "📧 Указать email",
		"btn_language":      "🌐 English",
		"btn_cancel":        "❌ Отменить",
		"btn_back":          "◀️ Назад",
		"btn_close":         "✖️ Закрыть",
		"btn_tickets":       "📋 Открытые обращения",
		"btn_admin_panel":   "🛠 Админ-панель",
		"ask_subject":       "Введите тему обращения (от 5 до 100 символов):",
		"ask_message":       "Опишите проблему (от 10 до 2000 символов):",
		"ask_email":         "Введите ваш email:",
		"ask_email_current": "Текущий email: %s\n\nВведите новый email:",
		"subject_invalid":   "⚠️ Тема должна быть от 5 до 100 символов.",
		"message_invalid":   "⚠️ Сообщение должно быть от 10 до 2000 символов.",
		"email_invalid":     "⚠️ Это не похоже на email.",
		"ticket_created":    "✅ Обращение #%d создано. Мы ответим в ближайшее время.",
		"email_saved":       "✅ Email %s сохранён.",
		"cancelled":         "Действие отменено.",
		"error":             "Произошла ошибка. Попробуйте позже.",
		"language_changed":  "Язык изменён",
		"no_flow":           "Выберите действие в меню.",
		"admin_panel":       "🛠 Админ-панель\n\nОткрытых обращений: %d",
		"admin_new_ticket":  "🔔 Новое обращение #%d\n\nТема: %s\n\n%s",
		"admin_tickets":     "📋 Открытые обращения:\n\n",
		"admin_no_tickets":  "Открытых обращений нет.",
		"btn_reply":         "↩️ Ответить на #%d",
		"ask_reply":         "Введите ответ на обращение #%d «%s»:",
		"reply_sent":        "✅ Ответ на обращение #%d отправлен, обращение закрыто.",
		"ticket_gone":       "Обращение уже закрыто или не найдено.",
		"reply_to_user":     "📨 Ответ на обращение #%d «%s»:\n\n%s",
	},
	domain.LanguageEN: {
		"main_menu":         "🏠 Main menu\n\nChoose an action:",
		"btn_new_ticket":    "✉️ New request",
		"btn_set_email":     "📧 Set email",
		"btn_language":      "🌐 Русский",
		"btn_cancel":        "❌ Cancel",
		"btn_back":          "◀️ Back",
		"btn_close":         "✖️ Close",
		"btn_tickets":       "📋 Open requests",
		"btn_admin_panel":   "🛠 Admin panel",
		"ask_subject":       "Enter the subject (5 to 100 characters):",
		"ask_message":       "Describe the problem (10 to 2000 characters):",
		"ask_email":         "Enter your email:",
		"ask_email_current": "Current email: %s\n\nEnter a new email:",
		"subject_invalid":   "⚠️ Subject must be 5 to 100 characters long.",
		"message_invalid":   "⚠️ Message must be 10 to 2000 characters long.",
		"email_invalid":     "⚠️ That does not look like an email.",
		"ticket_created":    "✅ Request #%d created. We will answer soon.",
		"email_saved":       "✅ Email %s saved.",
		"cancelled":         "Cancelled.",
		"error":             "Something went wrong. Please try again later.",
		"language_changed":  "Language changed",
		"no_flow":           "Choose an action from the menu.",
		"admin_panel":       "🛠 Admin panel\n\nOpen requests: %d",
		"admin_new_ticket":  "🔔 New request #%d\n\nSubject: %s\n\n%s",
		"admin_tickets":     "📋 Open requests:\n\n",
		"admin_no_tickets":  "No open requests.",
		"btn_reply":         "↩️ Reply to #%d",
		"ask_reply":         "Enter the reply to request #%d \"%s\":",
		"reply_sent":        "✅ Reply to request #%d sent, request closed.",
		"ticket_gone":       "The request is already closed or missing.",
		"reply_to_user":     "📨 Reply to your request #%d \"%s\":\n\n%s",
	},
}

// tr returns the text for key in lang, falling back to the default language
func tr(lang, key string, args ...any) string {
	set, ok := texts[lang]
	if !ok {
		set = texts[domain.DefaultLanguage]
	}
	s, ok := set[key]
	if !ok {
		s = texts[domain.DefaultLanguage][key]
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}
