package telegram

import (
	"errors"

	"weightduel/internal/domain"
)

const (
	msgGreetingNew = "Этот бот — для дуэли по снижению веса.\n" +
		"Выберите, кем вы являетесь для регистрации:"
	msgNoOpenRoles       = "Все роли уже заняты."
	msgMainMenu          = "Главное меню:"
	msgNeedRegistration  = "Сначала зарегистрируйтесь: /start"
	msgAskWeight         = "Введите вес в кг (например, 82.4):"
	msgAskCorrection     = "Введите новое значение веса (кг), например 82.1:"
	msgBadNumber         = "Некорректное число. Пример: 82.4"
	msgWeightUsage       = "Использование: /weight 82.4"
	msgRecorded          = "Записал! ✅"
	msgCorrected         = "Готово! Запись обновлена. ✅"
	msgDuplicateHint     = "\nЕсли опечатались — используйте «" + ButtonEdit + "»."
	msgDuplicate         = "❗ На сегодня запись уже есть. Разрешена только одна запись в день." + msgDuplicateHint
	msgNoEntries         = "У вас пока нет записей для редактирования."
	msgPickEntry         = "Выберите запись для исправления (последние 4):"
	msgSelectionExpired  = "Не могу найти выбранную запись. Откройте меню редактирования ещё раз."
	msgUnknownRole       = "❗ Неизвестная роль."
	msgPersistenceFailed = "Не удалось сохранить данные. Попробуйте ещё раз чуть позже."
	msgUnexpected        = "Что-то пошло не так. Попробуйте ещё раз."
)

func greeting(name string) string {
	return "Привет, " + name + "! 👋\nГотов к замерам?"
}

func registered(name string) string {
	return "Успех! Вы зарегистрированы как «" + name + "»."
}

func roleTaken(name string) string {
	return "❗ Роль «" + name + "» уже занята."
}

func alreadyRegistered(name string) string {
	return "❗ Вы уже зарегистрированы как «" + name + "»."
}

// weightErrorText maps a failed record or correction to a reply.
func weightErrorText(err error) string {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return msgBadNumber
	case domain.KindConflict:
		if errors.Is(err, domain.ErrDuplicateForDay) {
			return msgDuplicate
		}
		return "❗ " + err.Error()
	case domain.KindNotFound:
		if errors.Is(err, domain.ErrNotRegistered) {
			return msgNeedRegistration
		}
		return msgSelectionExpired
	case domain.KindPersistence:
		return msgPersistenceFailed
	default:
		return msgUnexpected
	}
}
